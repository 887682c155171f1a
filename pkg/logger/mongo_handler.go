package logger

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 4096
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
	mongoWriteWait = 5 * time.Second
)

// Entry is one log line as stored in MongoDB. The request, account and
// order ids are lifted out of the attributes so a workshop's activity can
// be queried by index.
type Entry struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	UserID    string    `bson:"user_id,omitempty"`
	OrderID   string    `bson:"order_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// MongoHandler is an slog.Handler that appends entries to a collection.
// Handle never blocks: entries go to a bounded queue drained in batches by
// one goroutine, and a full queue drops the entry.
type MongoHandler struct {
	sink  *mongoSink
	level slog.Leveler
	attrs []slog.Attr
	group string
}

type mongoSink struct {
	col     *mongo.Collection
	queue   chan Entry
	dropped atomic.Int64
	failed  atomic.Int64
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewMongoHandler starts a handler writing to col. Close it before
// disconnecting the client that owns col.
func NewMongoHandler(ctx context.Context, col *mongo.Collection, level slog.Leveler) *MongoHandler {
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "time", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "time", Value: -1}}, Options: options.Index().SetSparse(true)},
	})

	s := &mongoSink{
		col:     col,
		queue:   make(chan Entry, mongoQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return &MongoHandler{sink: s, level: level}
}

// ─── slog.Handler ────────────────────────────────────────────────────────────

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{
		Time:  r.Time.UTC(),
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}

	for _, a := range h.attrs {
		h.put(&e, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.put(&e, a)
		return true
	})
	if len(e.Attrs) == 0 {
		e.Attrs = nil
	}

	select {
	case h.sink.queue <- e:
	default:
		h.sink.dropped.Add(1)
	}
	return nil
}

// put files a into e. Grouped attributes are never promoted.
func (h *MongoHandler) put(e *Entry, a slog.Attr) {
	if h.group == "" {
		switch a.Key {
		case "request_id":
			e.RequestID = a.Value.String()
			return
		case "user_id":
			e.UserID = a.Value.String()
			return
		case "order_id":
			e.OrderID = a.Value.String()
			return
		}
	}

	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	v := a.Value.Resolve()
	if err, ok := v.Any().(error); ok {
		e.Attrs[key] = err.Error()
		return
	}
	e.Attrs[key] = v.Any()
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = strings.TrimPrefix(h.group+"."+name, ".")
	return &next
}

// Dropped reports how many entries were discarded because the queue was full.
func (h *MongoHandler) Dropped() int64 { return h.sink.dropped.Load() }

// Failed reports how many entries were lost to failed inserts.
func (h *MongoHandler) Failed() int64 { return h.sink.failed.Load() }

// Close flushes queued entries and stops the writer. Safe to call twice.
func (h *MongoHandler) Close() {
	h.sink.once.Do(func() { close(h.sink.done) })
	<-h.sink.stopped
}

// ─── writer ──────────────────────────────────────────────────────────────────

func (s *mongoSink) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(mongoDrainTick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, mongoBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), mongoWriteWait)
		defer cancel()
		// unordered so one bad entry does not sink the rest
		if _, err := s.col.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false)); err != nil {
			s.failed.Add(int64(len(batch)))
		}
		batch = batch[:0]
	}
	add := func(e Entry) {
		batch = append(batch, e)
		if len(batch) >= mongoBatchSize {
			flush()
		}
	}

	for {
		select {
		case e := <-s.queue:
			add(e)
		case <-ticker.C:
			flush()
		case <-s.done:
			for len(s.queue) > 0 {
				add(<-s.queue)
			}
			flush()
			return
		}
	}
}
