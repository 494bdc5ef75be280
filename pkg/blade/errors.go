package blade

import (
	"errors"
	"fmt"
)

// Kind classifies a compile failure.
type Kind string

const (
	KindUnbalancedExpression  Kind = "unbalanced_expression"
	KindIO                    Kind = "io"
	KindUnmatchedComponentTag Kind = "unmatched_component_tag"
	KindInvalidDirectiveName  Kind = "invalid_directive_name"
)

var (
	ErrUnbalancedExpression  = errors.New("unbalanced expression")
	ErrIO                    = errors.New("template i/o failed")
	ErrUnmatchedComponentTag = errors.New("unmatched component tag")
	ErrInvalidDirectiveName  = errors.New("invalid directive name")
)

// Diagnostic is the error type returned by the compiler.
// Offset is a byte offset into the text being compiled, -1 when unknown.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Offset  int    `json:"offset"`
	Err     error  `json:"-"`
}

func (d *Diagnostic) Error() string {
	msg := d.Message
	if d.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, d.Offset)
	}
	if d.Path != "" {
		msg = d.Path + ": " + msg
	}
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	return msg
}

func (d *Diagnostic) Unwrap() error { return d.Err }

// Is lets errors.Is match a Diagnostic against the package sentinels.
func (d *Diagnostic) Is(target error) bool {
	switch target {
	case ErrUnbalancedExpression:
		return d.Kind == KindUnbalancedExpression
	case ErrIO:
		return d.Kind == KindIO
	case ErrUnmatchedComponentTag:
		return d.Kind == KindUnmatchedComponentTag
	case ErrInvalidDirectiveName:
		return d.Kind == KindInvalidDirectiveName
	}
	return false
}

func unbalanced(offset int) *Diagnostic {
	return &Diagnostic{Kind: KindUnbalancedExpression, Message: "unclosed expression", Offset: offset}
}

func ioFailure(path, op string, err error) *Diagnostic {
	return &Diagnostic{Kind: KindIO, Message: op, Path: path, Offset: -1, Err: err}
}

// withPath stamps the source path onto a Diagnostic produced by CompileString.
func withPath(err error, path string) error {
	var d *Diagnostic
	if errors.As(err, &d) && d.Path == "" {
		d.Path = path
	}
	return err
}
