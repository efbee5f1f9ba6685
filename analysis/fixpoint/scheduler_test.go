// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fixpoint

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestQueueServesContinuationsFirst(t *testing.T) {
	q := newTaskQueue()
	q.push(task{kind: taskInitial})
	q.push(task{kind: taskContinuation, susp: &suspension{}})
	q.push(task{kind: taskTriggered})

	first, ok := q.next()
	if !ok || first.kind != taskContinuation {
		t.Fatalf("expected the continuation first, got kind %d", first.kind)
	}
	q.done()
	second, ok := q.next()
	if !ok || second.kind != taskInitial {
		t.Fatalf("expected FIFO order within the fresh lane, got kind %d", second.kind)
	}
	q.done()
	third, ok := q.next()
	if !ok || third.kind != taskTriggered {
		t.Fatalf("expected the triggered task last, got kind %d", third.kind)
	}
	q.done()
	if _, ok := q.next(); ok {
		t.Fatal("empty queue with no executing worker must report quiescence")
	}
}

func TestDrainReachesQuiescence(t *testing.T) {
	// Each executed task pushes two children until a depth budget runs out. If
	// drain treated "momentarily empty" as quiescent, workers would exit while
	// a sibling is still about to push.
	q := newTaskQueue()
	var executed atomic.Int64
	const depth = 10
	q.push(task{kind: taskInitial, entity: 0})
	q.drain(8, func(tk task) {
		executed.Add(1)
		d := tk.entity.(int)
		if d < depth {
			q.push(task{kind: taskInitial, entity: d + 1})
			q.push(task{kind: taskInitial, entity: d + 1})
		}
	})
	want := int64(1<<(depth+1) - 1)
	if got := executed.Load(); got != want {
		t.Errorf("expected %d executed tasks, got %d", want, got)
	}
	if q.pending() != 0 {
		t.Errorf("queue not empty after drain: %d pending", q.pending())
	}
}

func TestDrainAllWorkersExit(t *testing.T) {
	q := newTaskQueue()
	for i := 0; i < 100; i++ {
		q.push(task{kind: taskInitial, entity: i})
	}
	var mu sync.Mutex
	seen := map[int]bool{}
	q.drain(4, func(tk task) {
		mu.Lock()
		seen[tk.entity.(int)] = true
		mu.Unlock()
	})
	if len(seen) != 100 {
		t.Errorf("expected all 100 tasks to run exactly once, got %d distinct", len(seen))
	}
}

func TestDrainDefaultWorkerCount(t *testing.T) {
	q := newTaskQueue()
	q.push(task{kind: taskInitial, entity: 0})
	ran := false
	q.drain(0, func(task) { ran = true })
	if !ran {
		t.Error("drain with workers<=0 must still run with the default pool")
	}
}
