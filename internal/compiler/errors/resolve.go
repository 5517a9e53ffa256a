package errors

import (
	"fmt"
	"strings"
)

// Resolution error codes (RES100-199)
const (
	// ErrPropTypesNotFound indicates no candidate component has a known props type
	ErrPropTypesNotFound ErrorCode = "RES101"
	// ErrUnknownTypeAlias indicates a referenced type name is not registered
	ErrUnknownTypeAlias ErrorCode = "RES102"
	// ErrUnknownProperty indicates the marker's key is not a property of the props type
	ErrUnknownProperty ErrorCode = "RES103"
	// ErrPropertyNotObject indicates the property type is not object-shaped
	ErrPropertyNotObject ErrorCode = "RES104"
	// ErrCircularAlias indicates a type alias refers back to itself
	ErrCircularAlias ErrorCode = "RES105"
	// ErrMarkerPlacement indicates a marker call outside an object property
	ErrMarkerPlacement ErrorCode = "RES106"
)

// NewPropTypesNotFound creates a RES101 error
func NewPropTypesNotFound(loc SourceLocation, candidates []string) *CompilerError {
	return newError(
		ErrPropTypesNotFound,
		"prop_types_not_found",
		CategoryResolve,
		SeverityError,
		fmt.Sprintf("Could not find prop types for possible react components [%s]", strings.Join(candidates, ", ")),
		loc,
	).WithSuggestion("Declare the component's props type as a class type argument, a typed props field or a typed function parameter").
		WithExamples(
			"class Article extends React.Component<ArticleProps> {}",
			"function Article(props: ArticleProps) {}",
		)
}

// NewUnknownTypeAlias creates a RES102 error
func NewUnknownTypeAlias(loc SourceLocation, name string) *CompilerError {
	return newError(
		ErrUnknownTypeAlias,
		"unknown_type_alias",
		CategoryResolve,
		SeverityError,
		fmt.Sprintf("There is no type object with name %s", name),
		loc,
	).WithSuggestion(fmt.Sprintf("Declare type %s in this file or import it with `import type`", name))
}

// NewUnknownProperty creates a RES103 error
func NewUnknownProperty(loc SourceLocation, property, typeName string, available []string) *CompilerError {
	err := newError(
		ErrUnknownProperty,
		"unknown_property",
		CategoryResolve,
		SeverityError,
		fmt.Sprintf("There is no property named '%s' in type %s", property, typeName),
		loc,
	)
	if len(available) > 0 {
		err.WithSuggestion(fmt.Sprintf("Available properties: %s", strings.Join(available, ", ")))
	}
	return err
}

// NewPropertyNotObject creates a RES104 error
func NewPropertyNotObject(loc SourceLocation, property, typeName, actual string) *CompilerError {
	return newError(
		ErrPropertyNotObject,
		"property_not_object",
		CategoryResolve,
		SeverityError,
		fmt.Sprintf("Property '%s' in type %s is not an object type", property, typeName),
		loc,
	).WithExpected("object").
		WithActual(actual)
}

// NewCircularAlias creates a RES105 error
func NewCircularAlias(loc SourceLocation, chain []string) *CompilerError {
	name := ""
	if len(chain) > 0 {
		name = chain[len(chain)-1]
	}
	return newError(
		ErrCircularAlias,
		"circular_alias",
		CategoryResolve,
		SeverityError,
		fmt.Sprintf("Circular type alias %s", name),
		loc,
	).WithActual(strings.Join(chain, " -> "))
}

// NewMarkerPlacement creates a RES106 error
func NewMarkerPlacement(loc SourceLocation, reason string) *CompilerError {
	msg := "Marker call is not the value of an object property"
	if reason != "" {
		msg = reason
	}
	return newError(
		ErrMarkerPlacement,
		"marker_placement",
		CategoryResolve,
		SeverityError,
		msg,
		loc,
	).WithExamples(
		"fragments: { article: generateFragmentFromProps() }",
		"Article.fragments = { article: generateFragmentFromPropsFor(Article) }",
	)
}
