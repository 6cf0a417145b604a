// Package server exposes the shader pipeline over a JSON command transport.
// The dispatcher validates request shapes and maps operations onto the
// shader manager; the websocket listener is a thin framing layer around it.
package server

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fragworks/fragforge/internal/logger"
	"github.com/fragworks/fragforge/internal/shader"
)

// Request is one transport command.
type Request struct {
	ID   string   `json:"id,omitempty"`
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

// Response answers one Request. OK and Error are mutually exclusive.
type Response struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Operation names accepted on the wire.
const (
	OpCreate  = "create"
	OpConnect = "connect"
	OpFree    = "free"
)

// Dispatcher validates and executes transport requests. Malformed requests
// are rejected here, before anything reaches the pipeline.
type Dispatcher struct {
	manager *shader.Manager
	log     *logger.Logger
}

// NewDispatcher creates a Dispatcher over the given manager.
func NewDispatcher(manager *shader.Manager, log *logger.Logger) *Dispatcher {
	return &Dispatcher{manager: manager, log: log}
}

// Dispatch executes one request and always returns a response. Requests
// without an id get a generated one so callers can still correlate.
func (d *Dispatcher) Dispatch(req Request) Response {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	switch req.Op {
	case OpCreate:
		return d.create(id, req.Args)
	case OpConnect:
		return d.connect(id, req.Args)
	case OpFree:
		return d.free(id, req.Args)
	default:
		return fail(id, fmt.Sprintf("unknown operation %q", req.Op))
	}
}

func (d *Dispatcher) create(id string, args []string) Response {
	if len(args) != 2 {
		return fail(id, fmt.Sprintf("create expects 2 arguments, got %d", len(args)))
	}

	artifact := d.manager.CreateShader(args[0], args[1])
	if artifact.Failed() {
		return fail(id, artifact.Message)
	}
	return Response{ID: id, OK: true, Result: artifact.ID}
}

func (d *Dispatcher) connect(id string, args []string) Response {
	if len(args) != 1 {
		return fail(id, fmt.Sprintf("connect expects 1 argument, got %d", len(args)))
	}
	if err := d.manager.Connect(args[0]); err != nil {
		return fail(id, err.Error())
	}
	return Response{ID: id, OK: true, Result: args[0]}
}

func (d *Dispatcher) free(id string, args []string) Response {
	if len(args) != 1 {
		return fail(id, fmt.Sprintf("free expects 1 argument, got %d", len(args)))
	}
	if err := d.manager.RemoveByID(args[0]); err != nil {
		return fail(id, err.Error())
	}
	return Response{ID: id, OK: true, Result: args[0]}
}

func fail(id, reason string) Response {
	return Response{ID: id, Error: reason}
}
