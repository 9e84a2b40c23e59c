package scene

import (
	"reflect"
	"testing"
)

type recorder struct {
	name string
	log  *[]string
}

func (r recorder) Name() string { return r.name }
func (r recorder) Execute()     { *r.log = append(*r.log, r.name) }

func TestExecuteInInsertionOrder(t *testing.T) {
	var log []string
	s := New()
	names := []string{"globe", "get_wind", "update_speed", "segments"}
	for _, n := range names {
		s.Add(recorder{name: n, log: &log})
	}

	if ran := s.Execute(); ran != len(names) {
		t.Errorf("expected %d primitives to run, got %d", len(names), ran)
	}
	if !reflect.DeepEqual(log, names) {
		t.Errorf("expected order %v, got %v", names, log)
	}
}

func TestOrderSurvivesRemoval(t *testing.T) {
	var log []string
	s := New()
	a := s.Add(recorder{name: "a", log: &log})
	s.Add(recorder{name: "b", log: &log})
	s.Add(recorder{name: "c", log: &log})

	if !s.Remove(a) {
		t.Fatal("expected removal")
	}
	if s.Remove(a) {
		t.Error("second removal should report false")
	}
	s.Add(recorder{name: "d", log: &log})

	var got []string
	for _, p := range s.Primitives() {
		got = append(got, p.Name())
	}
	if want := []string{"b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestShowHide(t *testing.T) {
	var log []string
	s := New()
	globe := s.Add(recorder{name: "globe", log: &log})
	p1 := s.Add(recorder{name: "p1", log: &log})
	p2 := s.Add(recorder{name: "p2", log: &log})

	s.SetShow(false, p1, p2)
	if s.Shown(p1) || !s.Shown(globe) {
		t.Error("unexpected visibility after hide")
	}
	s.Execute()
	if !reflect.DeepEqual(log, []string{"globe"}) {
		t.Errorf("hidden primitives ran: %v", log)
	}

	s.SetShow(true, p1, p2)
	log = nil
	if ran := s.Execute(); ran != 3 {
		t.Errorf("expected 3 to run after show, got %d", ran)
	}
}

func TestRemoveAll(t *testing.T) {
	var log []string
	s := New()
	e := s.Add(recorder{name: "a", log: &log})
	s.Add(recorder{name: "b", log: &log})

	s.RemoveAll()
	if s.Len() != 0 {
		t.Errorf("expected empty scene, got %d", s.Len())
	}
	if s.Shown(e) {
		t.Error("removed primitive reported shown")
	}
	s.SetShow(true, e) // ignored
	if s.Execute() != 0 {
		t.Error("nothing should run in an empty scene")
	}
}
