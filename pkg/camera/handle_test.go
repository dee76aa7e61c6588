package camera

import (
	"testing"

	"github.com/eoscam/eoscam/pkg/edsdk/fake"
)

func TestScopedHandle_Counts(t *testing.T) {
	s := fake.New()
	node := s.AddCamera("Port 0", "Test", fake.CameraSpec{})
	baseline := node.RefCount()

	a := Retain(s, node.Handle())
	b := a.Clone()
	if got := node.RefCount(); got != baseline+2 {
		t.Fatalf("after clone: refs = %d, want %d", got, baseline+2)
	}

	c := b.Take()
	if !b.IsNull() {
		t.Fatal("moved-from handle is not null")
	}
	if got := node.RefCount(); got != baseline+2 {
		t.Fatalf("after take: refs = %d, want %d", got, baseline+2)
	}
	b.Close()
	if got := node.RefCount(); got != baseline+2 {
		t.Fatalf("closing moved-from handle released: refs = %d", got)
	}

	var d ScopedHandle
	d.sdk = s
	d.Swap(c)
	if !c.IsNull() || d.Handle() != node.Handle() {
		t.Fatalf("swap: c=0x%X d=0x%X", uintptr(c.Handle()), uintptr(d.Handle()))
	}

	a.Close()
	d.Close()
	c.Close()
	if got := node.RefCount(); got != baseline {
		t.Fatalf("after close: refs = %d, want %d", got, baseline)
	}
	if v := s.Violations(); len(v) != 0 {
		t.Fatalf("violations: %v", v)
	}
}

func TestScopedHandle_SwapBothHeld(t *testing.T) {
	s := fake.New()
	n1 := s.AddCamera("Port 0", "Test", fake.CameraSpec{})
	n2 := s.AddCamera("Port 1", "Test Camera 1", fake.CameraSpec{})

	a := Retain(s, n1.Handle())
	b := Retain(s, n2.Handle())
	a.Swap(b)
	if a.Handle() != n2.Handle() || b.Handle() != n1.Handle() {
		t.Fatal("handles not exchanged")
	}
	if n1.RefCount() != 1 || n2.RefCount() != 1 {
		t.Fatalf("swap changed counts: %d %d", n1.RefCount(), n2.RefCount())
	}
	a.Close()
	b.Close()
	if n1.RefCount() != 0 || n2.RefCount() != 0 {
		t.Fatalf("leaked: %d %d", n1.RefCount(), n2.RefCount())
	}
}

func TestScopedHandle_CloseOnce(t *testing.T) {
	s := fake.New()
	node := s.AddCamera("Port 0", "Test", fake.CameraSpec{})

	h := Retain(s, node.Handle())
	h.Close()
	h.Close()
	if got := node.RefCount(); got != 0 {
		t.Fatalf("refs = %d, want 0", got)
	}
	if v := s.Violations(); len(v) != 0 {
		t.Fatalf("double release reached the sdk: %v", v)
	}
}

func TestScopedHandle_Null(t *testing.T) {
	s := fake.New()

	h := Retain(s, 0)
	c := h.Clone()
	h.Close()
	c.Close()

	var nilHandle *ScopedHandle
	nilHandle.Close()

	if v := s.Violations(); len(v) != 0 {
		t.Fatalf("null handle reached the sdk: %v", v)
	}
}
