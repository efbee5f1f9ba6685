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
	"runtime"
	"sync"
)

// taskQueue is the multi-producer work queue the worker pool drains. It holds
// two FIFO lanes: continuations are served before fresh computations, which
// keeps in-flight chains short and results responsive. Every task in the queue
// is runnable; workers never wait for a condition other than queue content,
// and quiescence is exactly "both lanes empty and no worker executing".
type taskQueue struct {
	mu        sync.Mutex
	cond      *sync.Cond
	resume    []task // continuation lane, served first
	fresh     []task // initial and triggered lane
	executing int
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *taskQueue) push(t task) {
	q.mu.Lock()
	if t.kind == taskContinuation {
		q.resume = append(q.resume, t)
	} else {
		q.fresh = append(q.fresh, t)
	}
	q.mu.Unlock()
	q.cond.Signal()
}

// next blocks until a task is runnable or the pool is quiescent. The second
// return value is false exactly when the queue is empty and no other worker is
// executing, i.e. no task can ever become runnable again in this drain.
func (q *taskQueue) next() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if len(q.resume) > 0 {
			t := q.resume[0]
			q.resume = q.resume[1:]
			q.executing++
			return t, true
		}
		if len(q.fresh) > 0 {
			t := q.fresh[0]
			q.fresh = q.fresh[1:]
			q.executing++
			return t, true
		}
		if q.executing == 0 {
			q.cond.Broadcast()
			return task{}, false
		}
		q.cond.Wait()
	}
}

// done marks the completion of a task obtained from next. The executing
// counter is what separates "momentarily empty" from quiescent: a worker that
// is still executing may push new tasks.
func (q *taskQueue) done() {
	q.mu.Lock()
	q.executing--
	idle := q.executing == 0 && len(q.resume) == 0 && len(q.fresh) == 0
	q.mu.Unlock()
	if idle {
		q.cond.Broadcast()
	}
}

func (q *taskQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.resume) + len(q.fresh)
}

// drain runs the worker pool until quiescence. Each worker pulls runnable
// tasks and hands them to run; computations executed by run may push further
// tasks. drain returns once the queue is empty and every worker has exited.
func (q *taskQueue) drain(workers int, run func(task)) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				t, ok := q.next()
				if !ok {
					return
				}
				run(t)
				q.done()
			}
		}()
	}
	wg.Wait()
}
