package lock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_SerializesSameKey(t *testing.T) {
	locks := NewKeyed()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(BikeKey(7))
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size())
}

func TestKeyed_DifferentKeysDoNotBlock(t *testing.T) {
	locks := NewKeyed()

	unlock := locks.Lock(MemberKey("94031820982"))
	defer unlock()

	done := make(chan struct{})
	go func() {
		release := locks.Lock(MemberKey("01234567826"))
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on an unrelated key blocked")
	}
}

func TestKeyed_OverlappingSetsDoNotDeadlock(t *testing.T) {
	locks := NewKeyed()
	a, b := MemberKey("94031820982"), BikeKey(1)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			locks.Lock(a, b)()
		}()
		go func() {
			defer wg.Done()
			locks.Lock(b, a)()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("overlapping lock sets deadlocked")
	}
}

func TestKeyed_DuplicateKeysAndDoubleUnlock(t *testing.T) {
	locks := NewKeyed()

	unlock := locks.Lock(BikeKey(3), BikeKey(3))
	assert.Equal(t, 1, locks.size())
	unlock()
	unlock()
	assert.Equal(t, 0, locks.size())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "member:94031820982", MemberKey("94031820982"))
	assert.Equal(t, "bike:12", BikeKey(12))
}
