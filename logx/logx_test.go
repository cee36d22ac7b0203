package logx

import "testing"

func TestNoOpLoggerDoesNotPanic(t *testing.T) {
	l := NewNoOp()
	l = l.With()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")
}

func TestNewDevelopmentBuilds(t *testing.T) {
	l, err := NewDevelopment()
	if err != nil {
		t.Fatalf("NewDevelopment: %v", err)
	}
	l.Info("hello")
}
