package core

import "errors"

var (
	ErrNodeNotFound        = errors.New("node not found")
	ErrKnobNotFound        = errors.New("knob not found")
	ErrDuplicateNode       = errors.New("node with same name exists")
	ErrDuplicateCommand    = errors.New("command handler already registered")
	ErrExecutorUnavailable = errors.New("executor unavailable: no owning thread attached")
	ErrExecutorStopped     = errors.New("executor stopped")
	ErrServerRunning       = errors.New("server already running")
	ErrServerStopped       = errors.New("server is not running")
	ErrTooManyConnections  = errors.New("server at connection capacity")
	ErrConnNotFound        = errors.New("connection not found")
	ErrTemplateNotFound    = errors.New("template not found in toolsets")
	ErrScriptNotFound      = errors.New("script file does not exist")
	ErrPersistenceFailed   = errors.New("failed to persist script")
	ErrLoadFailed          = errors.New("failed to load script from persistence")
)
