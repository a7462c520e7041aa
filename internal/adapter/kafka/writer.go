// Package kafka publishes fused trajectory points to a sink topic so
// downstream voyage-analysis consumers see the same samples the display
// serves. Publishing is feature-flagged; the core fusion path never depends
// on a broker being reachable.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Continy/ShipTrackViz/internal/track"
)

// FusedPoint is the wire form of one trajectory sample. NaN field values are
// encoded as JSON null via the pointer fields.
type FusedPoint struct {
	Source    string              `json:"source"`
	Index     int                 `json:"index"`
	Latitude  float64             `json:"latitude"`
	Longitude float64             `json:"longitude"`
	Timestamp time.Time           `json:"timestamp"`
	Fields    map[string]*float64 `json:"fields"`
}

// Writer produces fused trajectory points to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishTrajectory serializes every point of a fused trajectory and writes
// the batch in a single WriteMessages call. source names the originating
// track file and becomes part of the message key.
func (w *Writer) PublishTrajectory(ctx context.Context, source string, traj *track.Trajectory) error {
	n := traj.Len()
	if n == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, n)
	for i := 0; i < n; i++ {
		p, err := traj.At(i)
		if err != nil {
			return err
		}
		msg, err := serializeToMessage(source, i, p)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	w.logger.Info("publishing fused trajectory", "source", source, "points", n)
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one trajectory point into a Kafka message keyed
// by source and sample index.
func serializeToMessage(source string, index int, p *track.TrajPoint) (kafkago.Message, error) {
	fp := FusedPoint{
		Source:    source,
		Index:     index,
		Latitude:  p.Latitude(),
		Longitude: p.Longitude(),
		Timestamp: p.Timestamp(),
		Fields:    make(map[string]*float64),
	}
	for _, name := range p.FieldNames() {
		// Position and timestamp already have top-level columns.
		if name == "latitude" || name == "longitude" || name == "timestamp" {
			continue
		}
		fv, _ := p.Field(name)
		if f, ok := fv.Float(); ok && !math.IsNaN(f) {
			v := f
			fp.Fields[name] = &v
		} else if fv.IsNull() {
			fp.Fields[name] = nil
		}
	}

	data, err := json.Marshal(fp)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize fused point: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(source + "/" + strconv.Itoa(index)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(source)},
			{Key: "sampled_at", Value: []byte(p.Timestamp().Format(time.RFC3339))},
		},
	}, nil
}
