package transform

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/schema"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func transformFixture(t *testing.T, opts Options, dir, name string) (*Result, error) {
	t.Helper()
	path := filepath.Join(dir, name)
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	return New(opts).TransformFile(context.Background(), path, src)
}

func transformSource(t *testing.T, opts Options, src string) (*Result, error) {
	t.Helper()
	dir := writeFiles(t, map[string]string{"Article.tsx": src})
	return transformFixture(t, opts, dir, "Article.tsx")
}

func relayWrapped(fragment string) string {
	return "() => Relay.QL`\n" + fragment + "`"
}

// positionOf returns the 1-indexed line and column of needle in src.
func positionOf(src, needle string) (int, int) {
	idx := strings.Index(src, needle)
	before := src[:idx]
	line := strings.Count(before, "\n") + 1
	return line, idx - strings.LastIndex(before, "\n")
}

const basicSource = `import React from "react";
import Relay from "react-relay";
import generateFragmentFromProps from "propfrag/generateFragmentFromProps";

type ArticleProps = {
  article: {
    title: string;
    author: {
      name: string;
    };
  };
};

class Article extends React.Component<ArticleProps> {
  render() {
    return <div>{this.props.article.title}</div>;
  }
}

export default Relay.createContainer(Article, {
  fragments: {
    article: generateFragmentFromProps(),
  },
});
`

const basicFragment = "fragment on Article {\n  title\n  author {\n    name\n  }\n}\n"

func TestTransformFile_Basic(t *testing.T) {
	res, err := transformSource(t, DefaultOptions(), basicSource)
	require.NoError(t, err)

	expected := strings.Replace(basicSource, "import generateFragmentFromProps from \"propfrag/generateFragmentFromProps\";\n", "", 1)
	expected = strings.Replace(expected, "generateFragmentFromProps()", relayWrapped(basicFragment), 1)

	assert.True(t, res.Changed)
	assert.Equal(t, expected, string(res.Output))
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, Fragment{
		Component: "Article",
		Key:       "article",
		TypeName:  "Article",
		Text:      basicFragment,
		Line:      22,
		Column:    14,
	}, res.Fragments[0])
	assert.Empty(t, res.Deps)
}

func TestTransformFile_SourceMap(t *testing.T) {
	res, err := transformSource(t, DefaultOptions(), basicSource)
	require.NoError(t, err)
	require.NotNil(t, res.SourceMap)

	sm := res.SourceMap
	assert.True(t, strings.HasSuffix(sm.SourceFile, "Article.tsx"))
	require.Len(t, sm.Mappings, 2)

	removed := sm.Mappings[0]
	assert.Equal(t, 3, removed.SourceLine)
	assert.Equal(t, 1, removed.SourceSpan)
	assert.Empty(t, removed.Name)

	fragment := sm.Mappings[1]
	assert.Equal(t, "article", fragment.Name)
	assert.Equal(t, 22, fragment.SourceLine)
	assert.Equal(t, 14, fragment.SourceColumn)
	assert.Equal(t, 21, fragment.GeneratedLine)
	assert.Equal(t, 14, fragment.GeneratedColumn)
	assert.Equal(t, strings.Count(relayWrapped(basicFragment), "\n"), fragment.GeneratedSpan)

	line, column := sm.OriginalPosition(23)
	assert.Equal(t, 22, line)
	assert.Equal(t, 14, column)
}

func TestTransformFile_NoMarkerImport(t *testing.T) {
	src := `import React from "react";

type Props = { article: { title: string } };

export function Article(props: Props) {
  return <div>{props.article.title}</div>;
}
`
	res, err := transformSource(t, DefaultOptions(), src)
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Equal(t, src, string(res.Output))
	assert.Empty(t, res.Fragments)
	assert.Nil(t, res.SourceMap)
}

func TestTransformFile_SyntaxError(t *testing.T) {
	_, err := transformSource(t, DefaultOptions(), "import generateFragmentFromProps from 'x';\nconst = {;\n")
	require.Error(t, err)

	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrSyntax, ce.Code)
	assert.Contains(t, ce.Message, "Syntax error in")
}

func TestTransformFile_RemovesOnlyMarkerSpecifiers(t *testing.T) {
	src := strings.Replace(basicSource,
		"import generateFragmentFromProps from \"propfrag/generateFragmentFromProps\";",
		"import { generateFragmentFromProps, fragmentHelpers } from \"propfrag\";", 1)

	res, err := transformSource(t, DefaultOptions(), src)
	require.NoError(t, err)

	out := string(res.Output)
	assert.Contains(t, out, "import { fragmentHelpers } from \"propfrag\";\n")
	assert.NotContains(t, out, "generateFragmentFromProps")
	assert.Contains(t, out, relayWrapped(basicFragment))
}

func TestTransformFile_AliasedMarkerImport(t *testing.T) {
	src := strings.Replace(basicSource,
		"import generateFragmentFromProps from \"propfrag/generateFragmentFromProps\";",
		"import { generateFragmentFromProps as fragmentFor } from \"propfrag\";", 1)
	src = strings.Replace(src, "generateFragmentFromProps()", "fragmentFor()", 1)

	res, err := transformSource(t, DefaultOptions(), src)
	require.NoError(t, err)

	out := string(res.Output)
	assert.NotContains(t, out, "fragmentFor")
	assert.NotContains(t, out, "propfrag")
	assert.Contains(t, out, relayWrapped(basicFragment))
}

func TestTransformFile_Shapes(t *testing.T) {
	props := `type ArticleProps = {
  article: {
    title: string;
    author: {
      name: string;
    };
  };
};
`
	container := `
export default Relay.createContainer(%s, {
  fragments: {
    article: generateFragmentFromProps(),
  },
});
`
	header := "import generateFragmentFromProps from \"propfrag\";\n\n"

	tests := []struct {
		name      string
		component string
		container string
	}{
		{
			name:      "props field",
			component: "class Article extends React.Component {\n  props: ArticleProps;\n}\n",
			container: "Article",
		},
		{
			name:      "legacy three type arguments",
			component: "class Article extends Component<void, ArticleProps, void> {}\n",
			container: "Article",
		},
		{
			name:      "wrapped component",
			component: "class Article extends React.PureComponent<ArticleProps> {}\n",
			container: "connect()(Article)",
		},
		{
			name:      "function component",
			component: "function Article({ article }: ArticleProps) {\n  return <div>{article.title}</div>;\n}\n",
			container: "Article",
		},
		{
			name:      "arrow function component",
			component: "export const Article = (props: ArticleProps) => <div>{props.article.title}</div>;\n",
			container: "Article",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := header + props + tt.component + strings.Replace(container, "%s", tt.container, 1)

			res, err := transformSource(t, DefaultOptions(), src)
			require.NoError(t, err)
			require.Len(t, res.Fragments, 1)
			assert.Equal(t, "Article", res.Fragments[0].Component)
			assert.Equal(t, basicFragment, res.Fragments[0].Text)
		})
	}
}

func TestTransformFile_ContainerHOC(t *testing.T) {
	src := `import generateFragmentFromProps from "propfrag";

type ArticleProps = { article: { title: string } };

class Article extends React.Component<ArticleProps> {}

export default RelayHOC(Article, {
  fragments: {
    article: generateFragmentFromProps(),
  },
});
`
	res, err := transformSource(t, DefaultOptions(), src)
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, "fragment on Article {\n  title\n}\n", res.Fragments[0].Text)
}

func TestTransformFile_Lists(t *testing.T) {
	src := `import generateFragmentFromProps from "propfrag";

type ArticleGraph = {
  title: string;
  posted: string;
  tags: string[] | null;
};

type AuthorGraph = {
  name: string;
  email: string;
  articles: Array<ArticleGraph>;
};

type AuthorProps = {
  author: AuthorGraph;
  articles: ArticleGraph[];
};

class Author extends React.Component<AuthorProps> {}

export default Relay.createContainer(Author, {
  fragments: {
    author: generateFragmentFromProps(),
    articles: generateFragmentFromProps({ type: "Article" }),
  },
});
`
	res, err := transformSource(t, DefaultOptions(), src)
	require.NoError(t, err)
	require.Len(t, res.Fragments, 2)

	assert.Equal(t, "fragment on Author {\n"+
		"  name\n"+
		"  email\n"+
		"  articles {\n"+
		"    title\n"+
		"    posted\n"+
		"    tags\n"+
		"  }\n"+
		"}\n", res.Fragments[0].Text)
	assert.Equal(t, "fragment on Article {\n  title\n  posted\n  tags\n}\n", res.Fragments[1].Text)
}

func TestTransformFile_FieldAliases(t *testing.T) {
	src := `import generateFragmentFromProps from "propfrag";

type AliasFor<K extends string, T> = T;

type ArticleProps = {
  article: {
    headline: AliasFor<"title", string>;
    writer: AliasFor<"author", { name: string }>;
  };
};

class Article extends React.Component<ArticleProps> {}

export default Relay.createContainer(Article, {
  fragments: {
    article: generateFragmentFromProps(),
  },
});
`
	res, err := transformSource(t, DefaultOptions(), src)
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, basicFragment, res.Fragments[0].Text)
}

func TestTransformFile_CustomNameTypeAndDirectives(t *testing.T) {
	src := strings.Replace(basicSource, "generateFragmentFromProps()",
		`generateFragmentFromProps({
      name: "blahFrag",
      type: "Blah",
      templateTag: "graphql",
      directives: { b: { y: 1, x: 2 }, a: {}, c: { skip: someVariable } },
    })`, 1)

	res, err := transformSource(t, DefaultOptions(), src)
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)

	frag := "fragment blahFrag on Blah @a() @b(x: 2, y: 1) @c() {\n  title\n  author {\n    name\n  }\n}\n"
	assert.Equal(t, frag, res.Fragments[0].Text)
	assert.Contains(t, string(res.Output), "article: () => graphql`\n"+frag+"`,")
}

func TestTransformFile_ImportedTypes(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"types/article.ts": `export type AuthorGraph = { name: string };
export type ArticleProps = {
  article: { title: string; author: AuthorGraph };
};
`,
		"Article.tsx": `import type { ArticleProps } from "./types/article";
import type { Missing } from "./does/not/exist";
import generateFragmentFromProps from "propfrag";

class Article extends React.Component<ArticleProps> {}

export default Relay.createContainer(Article, {
  fragments: {
    article: generateFragmentFromProps(),
  },
});
`,
	})

	res, err := transformFixture(t, DefaultOptions(), dir, "Article.tsx")
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, basicFragment, res.Fragments[0].Text)
	assert.Equal(t, []string{filepath.Join(dir, "types", "article.ts")}, res.Deps)
}

const relayChild = `import generateFragmentFromProps from "propfrag";

type %[1]sProps = { article: { %[2]s: string } };

class %[1]s extends React.Component<%[1]sProps> {}

export default Relay.createContainer(%[1]s, {
  fragments: {
    article: generateFragmentFromProps(),
  },
});
`

func child(format, component, field string) string {
	out := strings.ReplaceAll(format, "%[1]s", component)
	return strings.ReplaceAll(out, "%[2]s", field)
}

func TestTransformFile_RelayChildren(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ArticleTitle.tsx": child(relayChild, "ArticleTitle", "title"),
		"ArticleBody.tsx":  child(relayChild, "ArticleBody", "content"),
		"Article.tsx": `import generateFragmentFromProps from "propfrag";
import ArticleBody from "./ArticleBody";
import ArticleTitle from "./ArticleTitle";

type ArticleProps = { article: { title: string } };

class Article extends React.Component<ArticleProps> {
  render() {
    return (
      <div>
        <ArticleTitle article={this.props.article} />
        <ArticleBody article={this.props.article} />
      </div>
    );
  }
}

export default Relay.createContainer(Article, {
  fragments: {
    article: generateFragmentFromProps(),
  },
});
`,
	})

	res, err := transformFixture(t, DefaultOptions(), dir, "Article.tsx")
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)

	assert.Equal(t, "fragment on Article {\n"+
		"  title\n"+
		"  ${ArticleTitle.getFragment('article')}\n"+
		"  ${ArticleBody.getFragment('article')}\n"+
		"}\n", res.Fragments[0].Text)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "ArticleBody.tsx"),
		filepath.Join(dir, "ArticleTitle.tsx"),
	}, res.Deps)
}

const apolloChild = `import generateFragmentFromPropsFor from "propfrag";

type %[1]sProps = { article: { %[2]s: string } };

class %[1]s extends React.Component<%[1]sProps> {}

%[1]s.fragments = {
  article: generateFragmentFromPropsFor(%[1]s),
};

export default %[1]s;
`

func TestTransformFile_ApolloChildren(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ArticleTitle.tsx": child(apolloChild, "ArticleTitle", "title"),
		"ArticleBody.tsx":  child(apolloChild, "ArticleBody", "content"),
		"Article.tsx": `import React from "react";
import gql from "graphql-tag";
import generateFragmentFromPropsFor from "propfrag";

import ArticleBody from "./ArticleBody";
import ArticleTitle from "./ArticleTitle";
import Footer from "./Footer";

type ArticleProps = {
  article: {
    title: string;
    content: string;
  };
};

class Article extends React.Component<ArticleProps> {
  render() {
    return (
      <div>
        <ArticleTitle article={this.props.article} />
        <ArticleBody article={this.props.article} />
        <Footer />
      </div>
    );
  }
}

Article.fragments = {
  article: generateFragmentFromPropsFor(Article),
};

export default Article;
`,
	})

	opts, err := PresetOptions("apollo")
	require.NoError(t, err)

	res, err := transformFixture(t, opts, dir, "Article.tsx")
	require.NoError(t, err)

	assert.Contains(t, string(res.Output), "  article: gql`\n"+
		"fragment ArticleArticleFragment on Article {\n"+
		"  title\n"+
		"  content\n"+
		"  ...ArticleTitleArticleFragment\n"+
		"  ...ArticleBodyArticleFragment\n"+
		"}\n"+
		"${ArticleTitle.fragments.article}\n"+
		"${ArticleBody.fragments.article}\n"+
		"`,\n")
	assert.NotContains(t, string(res.Output), "generateFragmentFromPropsFor")
}

func TestTransformFile_SchemaCheck(t *testing.T) {
	catalog, err := schema.LoadSDL("schema.graphql", `
type Author { name: String! email: String! }
type Article { title: String! author: Author! }
type Query { article: Article }
`)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Catalog = catalog

	t.Run("match", func(t *testing.T) {
		_, err := transformSource(t, opts, basicSource)
		assert.NoError(t, err)
	})

	t.Run("mismatch", func(t *testing.T) {
		src := strings.Replace(basicSource, "name: string;", "name: string;\n      email: number;", 1)
		_, err := transformSource(t, opts, src)
		require.Error(t, err)

		ce, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrSchemaMismatch, ce.Code)
		assert.Equal(t, []string{"author.email: expected string!, actual number!"}, ce.Details)
		assert.True(t, strings.HasSuffix(ce.File, "Article.tsx"))
		line, _ := positionOf(src, "generateFragmentFromProps()")
		assert.Equal(t, line, ce.Location.Line)
	})

	t.Run("component-only keys", func(t *testing.T) {
		src := strings.Replace(basicSource, "title: string;", "title: string;\n    subtitle: string;", 1)
		_, err := transformSource(t, opts, src)
		assert.NoError(t, err)
	})

	t.Run("unknown schema type", func(t *testing.T) {
		src := strings.Replace(basicSource, "generateFragmentFromProps()", `generateFragmentFromProps({ type: "Story" })`, 1)
		_, err := transformSource(t, opts, src)
		require.Error(t, err)

		ce, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrUnknownSchemaType, ce.Code)
	})
}

func TestTransformFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		needle  string
		code    errors.ErrorCode
		message string
	}{
		{
			name:    "unknown property",
			src:     strings.Replace(basicSource, "article: generateFragmentFromProps()", "views: generateFragmentFromProps()", 1),
			needle:  "generateFragmentFromProps()",
			code:    errors.ErrUnknownProperty,
			message: "There is no property named 'views' in type ArticleProps",
		},
		{
			name:    "unknown component",
			src:     strings.Replace(basicSource, "createContainer(Article,", "createContainer(Story,", 1),
			needle:  "generateFragmentFromProps()",
			code:    errors.ErrPropTypesNotFound,
			message: "Could not find prop types for possible react components [Story]",
		},
		{
			name:    "scalar property",
			src:     strings.Replace(basicSource, "article: {\n    title: string;", "article: string;\n  other: {\n    title: string;", 1),
			needle:  "generateFragmentFromProps()",
			code:    errors.ErrPropertyNotObject,
			message: "Property 'article' in type ArticleProps is not an object type",
		},
		{
			name:    "unknown props type",
			src:     strings.Replace(basicSource, "React.Component<ArticleProps>", "React.Component<MissingProps>", 1),
			needle:  "generateFragmentFromProps()",
			code:    errors.ErrUnknownTypeAlias,
			message: "There is no type object with name MissingProps",
		},
		{
			name:    "not an object property",
			src:     strings.Replace(basicSource, "export default Relay.createContainer", "const fragment = generateFragmentFromProps();\nexport default Relay.createContainer", 1),
			needle:  "generateFragmentFromProps();",
			code:    errors.ErrMarkerPlacement,
			message: "Marker call is not the value of an object property",
		},
		{
			name: "invalid fragment name",
			src: strings.Replace(basicSource, "generateFragmentFromProps()",
				`generateFragmentFromProps({ name: "two words" })`, 1),
			needle: "generateFragmentFromProps(",
			code:   errors.ErrInvalidFragment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transformSource(t, DefaultOptions(), tt.src)
			require.Error(t, err)

			ce, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, ce.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, ce.Message)
			}

			line, column := positionOf(tt.src, tt.needle)
			assert.Equal(t, line, ce.Location.Line)
			assert.Equal(t, column, ce.Location.Column)
			assert.True(t, strings.HasSuffix(ce.File, "Article.tsx"))
			require.NotNil(t, ce.Context)
			assert.Contains(t, ce.Context.Current, strings.TrimSuffix(tt.needle, ";"))
		})
	}
}

func TestTransformFile_CircularAlias(t *testing.T) {
	src := strings.Replace(basicSource, "type ArticleProps = {", "type Loop = Loop2;\ntype Loop2 = Loop;\ntype ArticleProps = {\n  loop: Loop;", 1)
	src = strings.Replace(src, "article: generateFragmentFromProps()", "loop: generateFragmentFromProps()", 1)

	_, err := transformSource(t, DefaultOptions(), src)
	require.Error(t, err)

	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCircularAlias, ce.Code)
}

func TestTransformFile_CustomMarkers(t *testing.T) {
	src := strings.ReplaceAll(basicSource, "generateFragmentFromProps", "fragmentFromProps")

	opts := DefaultOptions()
	opts.Markers.Props = "fragmentFromProps"

	res, err := transformSource(t, opts, src)
	require.NoError(t, err)
	assert.Contains(t, string(res.Output), relayWrapped(basicFragment))
}

func TestTransformFile_Cancelled(t *testing.T) {
	dir := writeFiles(t, map[string]string{"Article.tsx": basicSource})
	path := filepath.Join(dir, "Article.tsx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultOptions()).TransformFile(ctx, path, []byte(basicSource))
	assert.Error(t, err)
}
