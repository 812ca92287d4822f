package logging

import (
	"errors"
	"log/slog"
	"slices"
)

// codedError is implemented by errors that carry a stable code, such as
// the capture device errors.
type codedError interface {
	error
	ErrorCode() string
}

// scopedAttr is an attribute added by WithAttrs under the groups open at
// that time.
type scopedAttr struct {
	groups []string
	attr   slog.Attr
}

// handlerState is the part of a handler that WithAttrs and WithGroup derive.
type handlerState struct {
	level  slog.Leveler
	attrs  []scopedAttr
	groups []string
}

func (s handlerState) withAttrs(attrs []slog.Attr) handlerState {
	scoped := slices.Clip(s.attrs)
	for _, a := range attrs {
		scoped = append(scoped, scopedAttr{groups: s.groups, attr: a})
	}
	s.attrs = scoped
	return s
}

func (s handlerState) withGroup(name string) handlerState {
	if name != "" {
		s.groups = append(slices.Clip(s.groups), name)
	}
	return s
}

func (s handlerState) enabled(level slog.Level) bool {
	return level >= s.level.Level()
}

// each calls fn for every leaf attribute of the handler and of r. path is
// the group names followed by the attribute key.
func (s handlerState) each(r slog.Record, fn func(path []string, v slog.Value)) {
	for _, sa := range s.attrs {
		walkAttr(sa.groups, sa.attr, fn)
	}
	r.Attrs(func(a slog.Attr) bool {
		walkAttr(s.groups, a, fn)
		return true
	})
}

func walkAttr(groups []string, a slog.Attr, fn func(path []string, v slog.Value)) {
	v := a.Value.Resolve()
	if a.Key == "" && v.Kind() != slog.KindGroup {
		return
	}
	if v.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(slices.Clip(groups), a.Key)
		}
		for _, ga := range v.Group() {
			walkAttr(sub, ga, fn)
		}
		return
	}
	fn(append(slices.Clip(groups), a.Key), v)
}

// errorCode extracts the code of a coded error anywhere in v's chain.
func errorCode(v slog.Value) (string, bool) {
	if v.Kind() != slog.KindAny {
		return "", false
	}
	err, ok := v.Any().(error)
	if !ok {
		return "", false
	}
	var coded codedError
	if !errors.As(err, &coded) {
		return "", false
	}
	return coded.ErrorCode(), true
}
