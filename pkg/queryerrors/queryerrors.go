// Package queryerrors contains the errors returned while analysing a GraphQL operation against a schema.
//
// All errors are fatal for a single run. Callers inspect them with errors.As.
package queryerrors

import (
	"fmt"
)

type UnsupportedQueryDocumentError struct {
	Reason string
}

func (e *UnsupportedQueryDocumentError) Error() string {
	return fmt.Sprintf("Query document not supported: %s", e.Reason)
}

type UnknownFieldError struct {
	Field string
	Type  string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("could not find field `%s` on `%s`", e.Field, e.Type)
}

type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("could not find type `%s`", e.Name)
}

type UnknownEnumError struct {
	Name string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("could not find enum `%s`", e.Name)
}

// UnknownArgumentError names the argument supplied by the query.
// Field is the field it was supplied on, it is not part of the message.
type UnknownArgumentError struct {
	Name  string
	Field string
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("couldn't find an argument named `%s`", e.Name)
}

type ExpectedObjectError struct {
	Type string
}

func (e *ExpectedObjectError) Error() string {
	return fmt.Sprintf("expected type `%s` to be an object", e.Type)
}

// ArgumentNotEnumError carries the argument or input field the enum value was supplied to.
type ArgumentNotEnumError struct {
	Argument string
}

func (e *ArgumentNotEnumError) Error() string {
	return "an enum-like value was provided to an argument that is not an enum"
}

func ErrUnsupportedQueryDocument(format string, args ...interface{}) error {
	return &UnsupportedQueryDocumentError{Reason: fmt.Sprintf(format, args...)}
}

func ErrUnknownField(field, typeName string) error {
	return &UnknownFieldError{Field: field, Type: typeName}
}

func ErrUnknownType(name string) error {
	return &UnknownTypeError{Name: name}
}

func ErrUnknownEnum(name string) error {
	return &UnknownEnumError{Name: name}
}

func ErrUnknownArgument(name, field string) error {
	return &UnknownArgumentError{Name: name, Field: field}
}

func ErrExpectedObject(typeName string) error {
	return &ExpectedObjectError{Type: typeName}
}

func ErrArgumentNotEnum(argument string) error {
	return &ArgumentNotEnumError{Argument: argument}
}
