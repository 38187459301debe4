package backend_test

import (
	"errors"
	"testing"

	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/backend/soft"
	"github.com/gogpu/gr/device"
)

func TestSoftRegisteredOnImport(t *testing.T) {
	if !backend.IsRegistered(backend.BackendSoft) {
		t.Fatal("soft backend not registered")
	}
	dev, err := backend.Open(backend.BackendSoft)
	if err != nil {
		t.Fatalf("Open(soft) error = %v", err)
	}
	if _, ok := dev.(*soft.Device); !ok {
		t.Errorf("Open(soft) = %T", dev)
	}
}

func TestOpenUnknown(t *testing.T) {
	_, err := backend.Open("nonexistent")
	if !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("Open(nonexistent) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegisterUnregister(t *testing.T) {
	const name = "test-backend"
	backend.Register(name, func() (device.Device, error) { return soft.New(), nil })
	if !backend.IsRegistered(name) {
		t.Fatal("backend not registered")
	}
	found := false
	for _, n := range backend.Available() {
		if n == name {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing %q", backend.Available(), name)
	}

	backend.Unregister(name)
	if backend.IsRegistered(name) {
		t.Error("backend still registered after Unregister")
	}
}

func TestDefaultFallsBack(t *testing.T) {
	failing := errors.New("no gpu")
	backend.Register(backend.BackendWGPU, func() (device.Device, error) { return nil, failing })
	defer backend.Unregister(backend.BackendWGPU)

	dev, name, err := backend.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if name != backend.BackendSoft || dev == nil {
		t.Errorf("Default() = %T from %q, want soft", dev, name)
	}
	backend.Close(dev)
}

func TestDefaultPriority(t *testing.T) {
	want := soft.New(soft.WithMaxTextureSize(64))
	backend.Register(backend.BackendWGPU, func() (device.Device, error) { return want, nil })
	defer backend.Unregister(backend.BackendWGPU)

	dev, name, err := backend.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if name != backend.BackendWGPU || dev != want {
		t.Errorf("Default() picked %q", name)
	}
}

func TestDefaultNoneAvailable(t *testing.T) {
	saved := backend.Available()
	for _, n := range saved {
		backend.Unregister(n)
	}
	defer backend.Register(backend.BackendSoft, func() (device.Device, error) { return soft.New(), nil })

	if _, _, err := backend.Default(); !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("Default() error = %v, want ErrBackendNotAvailable", err)
	}
}
