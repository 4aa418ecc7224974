// Package observer turns loader events into log records.
package observer

import (
	"errors"

	apperrors "github.com/reglet-dev/hotload/internal/application/errors"
	"github.com/reglet-dev/hotload/internal/application/ports"
)

// Level is the severity an event is logged at.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

var messages = map[ports.EventKind]string{
	ports.EventLookup:            "resolving module",
	ports.EventCacheHit:          "module cache hit",
	ports.EventPackageRegistered: "package registered",
	ports.EventPackageIgnored:    "package registration ignored",
	ports.EventSourceMiss:        "module not found in source",
	ports.EventDefined:           "module loaded",
	ports.EventLinked:            "module linked",
	ports.EventDelegated:         "delegating to parent",
	ports.EventReloaded:          "loader generation reloaded",
	ports.EventClosed:            "loader generation closed",
}

// Message returns the log message for kind.
func Message(kind ports.EventKind) string {
	if msg, ok := messages[kind]; ok {
		return msg
	}
	return string(kind)
}

// LevelOf returns the severity for e. Resolution steps are debug records;
// reloads are info; failures and non-duplicate package faults are warnings.
func LevelOf(e ports.Event) Level {
	switch {
	case e.Kind == ports.EventPackageIgnored && e.Err != nil && !errors.Is(e.Err, apperrors.ErrPackageExists):
		return LevelWarn
	case e.Kind == ports.EventClosed && e.Err != nil:
		return LevelWarn
	case e.Kind == ports.EventReloaded:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// Multi fans an event out to several observers.
type Multi []ports.Observer

// Observe implements ports.Observer.
func (m Multi) Observe(e ports.Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}
