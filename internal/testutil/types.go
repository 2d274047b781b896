package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/junioryono/ioc"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrIntentional = errors.New("intentional error")
	ErrConstructor = errors.New("constructor error")
)

// Plugin is the owner type used by test containers.
type Plugin struct {
	Name string
}

// NewPlugin creates a named owner.
func NewPlugin(name string) *Plugin {
	return &Plugin{Name: name}
}

// Engine is implemented by every engine type.
type Engine interface {
	Start() string
}

// BasicEngine is a component without dependencies.
type BasicEngine struct {
	ID string
}

func NewBasicEngine() *BasicEngine {
	return &BasicEngine{ID: uuid.NewString()}
}

func (e *BasicEngine) Start() string { return "basic" }

// Car depends on a concrete engine.
type Car struct {
	Engine *BasicEngine
}

func NewCar(engine *BasicEngine) *Car {
	return &Car{Engine: engine}
}

// V8Engine is an Engine implementation.
type V8Engine struct {
	ID string
}

func NewV8Engine() *V8Engine {
	return &V8Engine{ID: uuid.NewString()}
}

func (e *V8Engine) Start() string { return "v8" }

// V6Engine is another Engine implementation.
type V6Engine struct {
	ID string
}

func NewV6Engine() *V6Engine {
	return &V6Engine{ID: uuid.NewString()}
}

func (e *V6Engine) Start() string { return "v6" }

// Garage depends on the Engine interface.
type Garage struct {
	Engine Engine
}

func NewGarage(engine Engine) *Garage {
	return &Garage{Engine: engine}
}

// GarageParams requests the Engine qualified "v6" through a parameter object.
type GarageParams struct {
	ioc.In

	Engine Engine `qualifier:"v6"`
}

func NewGarageWithParams(params GarageParams) *Garage {
	return &Garage{Engine: params.Engine}
}

// Factory produces engines through factory methods and counts its calls.
type Factory struct {
	ID    string
	calls atomic.Int32
}

func NewFactory() *Factory {
	return &Factory{ID: uuid.NewString()}
}

// MakeEngine produces a V8 engine.
func (f *Factory) MakeEngine() Engine {
	f.calls.Add(1)
	return NewV8Engine()
}

// MakeTunedEngine produces an engine that records the tuner it was built with.
func (f *Factory) MakeTunedEngine(tuner *Tuner) (*TunedEngine, error) {
	f.calls.Add(1)
	if tuner == nil {
		return nil, ErrConstructor
	}
	return &TunedEngine{Tuner: tuner}, nil
}

// MakeBroken always fails.
func (f *Factory) MakeBroken() (*BrokenEngine, error) {
	f.calls.Add(1)
	return nil, ErrIntentional
}

// Calls returns how many factory methods ran.
func (f *Factory) Calls() int {
	return int(f.calls.Load())
}

// Tuner is a dependency of factory methods.
type Tuner struct {
	ID string
}

func NewTuner() *Tuner {
	return &Tuner{ID: uuid.NewString()}
}

// TunedEngine is produced by Factory.MakeTunedEngine.
type TunedEngine struct {
	Tuner *Tuner
}

func (e *TunedEngine) Start() string { return "tuned" }

// BrokenEngine is never produced.
type BrokenEngine struct{}

// CycleA and CycleB depend on each other.
type CycleA struct{ B *CycleB }
type CycleB struct{ A *CycleA }

func NewCycleA(b *CycleB) *CycleA { return &CycleA{B: b} }
func NewCycleB(a *CycleA) *CycleB { return &CycleB{A: a} }

// SelfDependent depends on itself.
type SelfDependent struct{ Self *SelfDependent }

func NewSelfDependent(self *SelfDependent) *SelfDependent { return &SelfDependent{Self: self} }

// Port is only implemented by PortAdapter, which depends on PortUser, which
// requests Port: a cycle that only exists through the interface.
type Port interface {
	Send(msg string) error
}

type PortAdapter struct{ User *PortUser }

func NewPortAdapter(user *PortUser) *PortAdapter { return &PortAdapter{User: user} }

func (p *PortAdapter) Send(string) error { return nil }

type PortUser struct{ Port Port }

func NewPortUser(port Port) *PortUser { return &PortUser{Port: port} }

// Counter counts constructions.
type Counter struct {
	n atomic.Int32
}

func (c *Counter) Inc() { c.n.Add(1) }

func (c *Counter) Load() int { return int(c.n.Load()) }

// Hooked records which of its hooks ran.
type Hooked struct {
	mu    sync.Mutex
	calls []string
}

func NewHooked() *Hooked {
	return &Hooked{}
}

func (h *Hooked) record(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, name)
}

// Calls returns the hooks that ran, in order.
func (h *Hooked) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *Hooked) PostConstruct() error {
	h.record("PostConstruct")
	return nil
}

func (h *Hooked) Init() {
	h.record("Init")
}

func (h *Hooked) Configure(string) {
	h.record("Configure")
}

func (h *Hooked) Fail() error {
	h.record("Fail")
	return ErrIntentional
}

func (h *Hooked) Explode() {
	h.record("Explode")
	panic("hook exploded")
}

// FailingHook fails its PostConstruct.
type FailingHook struct {
	Ran bool
}

func NewFailingHook() *FailingHook {
	return &FailingHook{}
}

func (h *FailingHook) PostConstruct() error {
	h.Ran = true
	return ErrIntentional
}
