package core

import (
	"math/rand"
	"reflect"
	"strconv"
	"testing"
)

func TestDirectoryJoinLeaveLifecycle(t *testing.T) {
	d := NewDirectory()

	if d.Exists("lobby") || d.Population("lobby") != 0 {
		t.Fatal("room must not exist before first join")
	}

	if !d.Join("lobby", "a") {
		t.Fatal("first join should add")
	}
	if d.Join("lobby", "a") {
		t.Fatal("second join of same client should be a no-op")
	}
	d.Join("lobby", "b")
	d.Join("lobby", "c")

	if got := d.Members("lobby"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("members out of join order: %v", got)
	}

	if !d.Leave("lobby", "b") {
		t.Fatal("leave of member should remove")
	}
	if d.Leave("lobby", "b") {
		t.Fatal("leave of non-member should report false")
	}
	if got := d.Members("lobby"); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("unexpected members: %v", got)
	}

	d.Leave("lobby", "a")
	d.Leave("lobby", "c")
	if d.Exists("lobby") || d.Len() != 0 {
		t.Fatal("empty room must be deleted")
	}
	if d.Leave("lobby", "a") {
		t.Fatal("leave of missing room should report false")
	}
}

func TestDirectoryMembersIsSnapshot(t *testing.T) {
	d := NewDirectory()
	d.Join("lobby", "a")

	snap := d.Members("lobby")
	snap[0] = "mutated"
	d.Join("lobby", "b")

	if got := d.Members("lobby"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("snapshot aliased directory state: %v", got)
	}
}

func TestDirectoryRoomsSorted(t *testing.T) {
	d := NewDirectory()
	d.Join("zeta", "1")
	d.Join("alpha", "2")
	d.Join("mid", "3")

	if got := d.Rooms(); !reflect.DeepEqual(got, []string{"alpha", "mid", "zeta"}) {
		t.Fatalf("unexpected rooms: %v", got)
	}
}

func TestDirectoryPopulationMatchesModel(t *testing.T) {
	d := NewDirectory()
	model := map[string]map[string]bool{}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		room := "r" + strconv.Itoa(rng.Intn(4))
		client := "c" + strconv.Itoa(rng.Intn(10))
		if rng.Intn(2) == 0 {
			d.Join(room, client)
			if model[room] == nil {
				model[room] = map[string]bool{}
			}
			model[room][client] = true
		} else {
			d.Leave(room, client)
			delete(model[room], client)
			if len(model[room]) == 0 {
				delete(model, room)
			}
		}

		for r := 0; r < 4; r++ {
			id := "r" + strconv.Itoa(r)
			if d.Population(id) != len(model[id]) {
				t.Fatalf("step %d: population of %s = %d, want %d", i, id, d.Population(id), len(model[id]))
			}
			if d.Exists(id) != (len(model[id]) > 0) {
				t.Fatalf("step %d: existence of %s mismatched", i, id)
			}
		}
	}
}
