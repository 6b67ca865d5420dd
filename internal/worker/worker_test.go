package worker_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"talentgraph.app/sourcer/internal/queue"
	"talentgraph.app/sourcer/internal/worker"
)

type funcProcessor struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, msg queue.Message) error
}

func (p *funcProcessor) Process(ctx context.Context, msg queue.Message) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.fn != nil {
		return p.fn(ctx, msg)
	}
	return nil
}

func (p *funcProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var _ = Describe("Worker", func() {
	var consumer *mockConsumer

	BeforeEach(func() {
		consumer = &mockConsumer{}
	})

	It("acks a message after successful processing", func() {
		w := worker.New(consumer, &funcProcessor{}, worker.Config{MaxAttempts: 3})

		err := w.ProcessMessage(context.Background(), queue.Message{ID: "1-0", RequestID: 1, Attempt: 1})

		Expect(err).NotTo(HaveOccurred())
		Expect(consumer.acked).To(Equal([]string{"1-0"}))
	})

	It("does not ack when processing fails", func() {
		proc := &funcProcessor{fn: func(ctx context.Context, msg queue.Message) error {
			return errors.New("boom")
		}}
		w := worker.New(consumer, proc, worker.Config{MaxAttempts: 3})

		err := w.ProcessMessage(context.Background(), queue.Message{ID: "1-0", RequestID: 1, Attempt: 1})

		Expect(err).To(HaveOccurred())
		Expect(consumer.acked).To(BeEmpty())
	})

	It("requeues failures below the attempt cap and DLQs at the cap", func() {
		var delivered bool
		consumer.readFn = func(ctx context.Context) ([]queue.Message, error) {
			if delivered {
				time.Sleep(5 * time.Millisecond)
				return nil, nil
			}
			delivered = true
			return []queue.Message{
				{ID: "1-0", RequestID: 1, Attempt: 1},
				{ID: "2-0", RequestID: 2, Attempt: 3},
			}, nil
		}
		proc := &funcProcessor{fn: func(ctx context.Context, msg queue.Message) error {
			return errors.New("persistent failure")
		}}
		w := worker.New(consumer, proc, worker.Config{MaxAttempts: 3, Concurrency: 2})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			_ = w.Run(ctx)
		}()

		Eventually(consumer.dlqIDs).Should(Equal([]string{"2-0"}))
		Eventually(consumer.requeuedIDs).Should(Equal([]string{"1-0"}))
		w.Stop()
	})

	It("recovers from a panicking processor", func() {
		var delivered bool
		consumer.readFn = func(ctx context.Context) ([]queue.Message, error) {
			if delivered {
				time.Sleep(5 * time.Millisecond)
				return nil, nil
			}
			delivered = true
			return []queue.Message{{ID: "1-0", RequestID: 1, Attempt: 3}}, nil
		}
		proc := &funcProcessor{fn: func(ctx context.Context, msg queue.Message) error {
			panic("unexpected snapshot shape")
		}}
		w := worker.New(consumer, proc, worker.Config{MaxAttempts: 3})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			_ = w.Run(ctx)
		}()

		Eventually(consumer.dlqIDs).Should(Equal([]string{"1-0"}))
		Expect(consumer.dlqErrs()[0]).To(ContainSubstring("panic"))
		w.Stop()
	})
})
