package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/types"
)

func str() types.Type { return types.NewScalar(types.KindString, false) }

func article() *types.ObjectType {
	return types.NewObject(false,
		types.NewField("title", str()),
		types.NewField("author", types.NewObject(false, types.NewField("name", str()))),
	)
}

func TestRender_Basic(t *testing.T) {
	got := Render(article(), "", "Article", nil, nil, Relay{})

	assert.Equal(t, "fragment on Article {\n  title\n  author {\n    name\n  }\n}\n", got)
}

func TestRender_NameAndDirectives(t *testing.T) {
	directives := Directives{
		"b": {"y": {Kind: ValueNumber, Text: "1"}, "x": {Kind: ValueNumber, Text: "2"}},
		"a": {},
	}

	got := Render(types.NewObject(false, types.NewField("id", str())), "blahFrag", "Blah", directives, nil, Relay{})

	assert.Equal(t, "fragment blahFrag on Blah @a() @b(x: 2, y: 1) {\n  id\n}\n", got)
}

func TestRenderDirectives(t *testing.T) {
	tests := []struct {
		name       string
		directives Directives
		want       string
	}{
		{"none", nil, ""},
		{"sorted", Directives{"b": {"y": {Kind: ValueNumber, Text: "1"}, "x": {Kind: ValueNumber, Text: "2"}}, "a": nil}, "@a() @b(x: 2, y: 1)"},
		{"strings quoted", Directives{"include": {"if": {Kind: ValueString, Text: `say "hi"`}}}, `@include(if: "say \"hi\"")`},
		{"booleans verbatim", Directives{"skip": {"if": {Kind: ValueBoolean, Text: "true"}}}, "@skip(if: true)"},
		{"negative numbers", Directives{"limit": {"n": {Kind: ValueNumber, Text: "-1.5"}}}, "@limit(n: -1.5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderDirectives(tt.directives))
		})
	}
}

func TestRender_Lists(t *testing.T) {
	obj := types.NewObject(false,
		types.NewField("tags", types.NewArray(str(), false)),
		types.NewField("comments", types.NewArray(types.NewObject(false, types.NewField("body", str())), true)),
		types.NewField("matrix", types.NewArray(types.NewArray(types.NewObject(false, types.NewField("x", str())), false), false)),
	)

	got := Render(obj, "", "Article", nil, nil, Relay{})

	assert.Equal(t, "fragment on Article {\n  tags\n  comments {\n    body\n  }\n  matrix {\n    x\n  }\n}\n", got)
}

func TestRender_PluralRoot(t *testing.T) {
	got := Render(types.NewArray(article(), false), "", "Article", nil, nil, Relay{})

	assert.Equal(t, Render(article(), "", "Article", nil, nil, Relay{}), got)
}

func TestRender_RenamedFields(t *testing.T) {
	obj := types.NewObject(false,
		types.NewField("headline", str().WithFieldName("title")),
		types.NewField("writer", types.NewObject(true, types.NewField("name", str())).WithFieldName("author")),
	)

	got := Render(obj, "", "Article", nil, nil, Relay{})

	assert.Equal(t, "fragment on Article {\n  title\n  author {\n    name\n  }\n}\n", got)
}

func TestRender_RelayChildren(t *testing.T) {
	children := []Child{{Component: "ArticleTitle", Key: "article"}, {Component: "ArticleBody", Key: "article"}}

	got := Render(types.NewObject(false, types.NewField("title", str())), "", "Article", nil, children, Relay{})

	assert.Equal(t, "fragment on Article {\n"+
		"  title\n"+
		"  ${ArticleTitle.getFragment('article')}\n"+
		"  ${ArticleBody.getFragment('article')}\n"+
		"}\n", got)
}

func TestRender_ApolloChildren(t *testing.T) {
	obj := types.NewObject(false, types.NewField("title", str()), types.NewField("content", str()))
	children := []Child{{Component: "ArticleTitle", Key: "article"}, {Component: "ArticleBody", Key: "article"}}

	got := Render(obj, ComponentKeyName("Article", "article"), "Article", nil, children, Apollo{})

	assert.Equal(t, "fragment ArticleArticleFragment on Article {\n"+
		"  title\n"+
		"  content\n"+
		"  ...ArticleTitleArticleFragment\n"+
		"  ...ArticleBodyArticleFragment\n"+
		"}\n"+
		"${ArticleTitle.fragments.article}\n"+
		"${ArticleBody.fragments.article}\n", got)
}

type commentStrategy struct{}

func (commentStrategy) Inside(component, key string) (string, bool) {
	return "# " + component + "." + key, true
}

func (commentStrategy) Outside(string, string) (string, bool) { return "", false }

func TestRegisterStrategy(t *testing.T) {
	RegisterStrategy("comment", commentStrategy{})

	s, ok := LookupStrategy("comment")
	require.True(t, ok)
	assert.Contains(t, StrategyNames(), "comment")

	got := Render(types.NewObject(false), "", "A", nil, []Child{{Component: "B", Key: "a"}}, s)
	assert.Equal(t, "fragment on A {\n  # B.a\n}\n", got)

	_, ok = LookupStrategy("missing")
	assert.False(t, ok)
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "Article", DefaultTypeName("article"))
	assert.Equal(t, "BlogPost", DefaultTypeName("blogPost"))
	assert.Equal(t, "", UpperFirst(""))
	assert.Equal(t, "My-key", UpperFirst("my-key"))
	assert.Equal(t, "Blog post", UpperFirst("blog post"))
	assert.Equal(t, "Éclair", UpperFirst("éclair"))
	assert.Equal(t, "ArticleViewerFragment", ComponentKeyName("Article", "viewer"))

	naming, ok := NamingByName(NamingComponentKey)
	require.True(t, ok)
	assert.Equal(t, "ArticleArticleFragment", naming("Article", "article"))

	naming, ok = NamingByName("")
	require.True(t, ok)
	assert.Equal(t, "", naming("Article", "article"))

	_, ok = NamingByName("bogus")
	assert.False(t, ok)
}

func TestPresetsAndWrap(t *testing.T) {
	relay, err := LookupPreset("relay")
	require.NoError(t, err)
	assert.Equal(t, "() => Relay.QL`\nfragment on A {\n}\n`", Wrap("fragment on A {\n}\n", relay.TemplateTag, relay.ArrowWrap))

	apollo, err := LookupPreset("apollo")
	require.NoError(t, err)
	assert.Equal(t, "gql`\nfragment X on A {\n}\n`", Wrap("fragment X on A {\n}\n", apollo.TemplateTag, apollo.ArrowWrap))

	_, err = LookupPreset("urql")
	assert.Error(t, err)
	assert.Equal(t, []string{"apollo", "relay"}, PresetNames())
}

func TestValidate(t *testing.T) {
	valid := []string{
		Render(article(), "", "Article", Directives{"a": nil, "b": {"x": {Kind: ValueNumber, Text: "2"}}}, nil, Relay{}),
		Render(article(), "", "Article", nil, []Child{{Component: "Title", Key: "article"}}, Relay{}),
		Render(article(), "ArticleArticleFragment", "Article", nil, []Child{{Component: "Title", Key: "article"}}, Apollo{}),
	}
	for _, text := range valid {
		assert.NoError(t, Validate(text), text)
	}

	err := Validate(Render(article(), "bad name", "Article", nil, nil, Relay{}))
	require.Error(t, err)
	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrInvalidFragment, ce.Code)
	assert.NotEmpty(t, ce.Message)
}
