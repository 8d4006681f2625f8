package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoSubscribers  = errors.New("eventbus: no matching subscribers")
	ErrInvalidHandler = errors.New("eventbus: invalid handler signature")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// EventBus delivers an event to every handler whose single parameter accepts
// the event's type. Handlers are func(E) or func(E) error.
type EventBus interface {
	Subscribe(handler any) error
	Publish(event any) error
	SubscribersCount() int
	Clear()
}

type publisherImpl struct {
	log *logrus.Entry

	mu       sync.RWMutex
	handlers []reflect.Value
}

func NewEventPublisher(log *logrus.Entry) EventBus {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}
	return &publisherImpl{log: log}
}

// Accepts reports whether handler would receive event.
func Accepts(handler any, event any) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != 1 {
		return false
	}
	param := t.In(0)
	if event == nil {
		switch param.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice:
			return true
		default:
			return false
		}
	}
	return reflect.TypeOf(event).AssignableTo(param)
}

func (p *publisherImpl) Subscribe(handler any) error {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("%w: %T is not a function", ErrInvalidHandler, handler)
	}
	if t.NumIn() != 1 {
		return fmt.Errorf("%w: %s takes %d parameters", ErrInvalidHandler, t, t.NumIn())
	}
	switch {
	case t.NumOut() == 0:
	case t.NumOut() == 1 && t.Out(0) == errorType:
	default:
		return fmt.Errorf("%w: %s must return nothing or error", ErrInvalidHandler, t)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, reflect.ValueOf(handler))
	return nil
}

func (p *publisherImpl) Publish(event any) error {
	p.mu.RLock()
	handlers := append([]reflect.Value(nil), p.handlers...)
	p.mu.RUnlock()

	in := []reflect.Value{reflect.ValueOf(event)}
	matched := 0
	var errs []error
	for _, h := range handlers {
		if !Accepts(h.Interface(), event) {
			continue
		}
		matched++
		if event == nil {
			in[0] = reflect.Zero(h.Type().In(0))
		}
		if err := p.call(h, in); err != nil {
			errs = append(errs, err)
		}
	}

	if matched == 0 {
		p.log.WithField("event", fmt.Sprintf("%T", event)).Debug("eventbus.Publish: no matching subscribers")
		return ErrNoSubscribers
	}
	return errors.Join(errs...)
}

func (p *publisherImpl) call(h reflect.Value, in []reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("eventbus: handler %s panicked: %v", h.Type(), r)
			p.log.WithField("handler", h.Type().String()).Errorf("eventbus: handler panicked: %v", r)
		}
	}()
	out := h.Call(in)
	if len(out) == 1 && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

func (p *publisherImpl) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}

func (p *publisherImpl) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = nil
}
