package interceptor

import (
	"bytes"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-insights/internal/domain/events"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// Emitter carries extraction events out of the page realm.
type Emitter interface {
	Emit(event models.ExtractionEvent)
}

type busEmitter struct {
	bus EventBus.Bus
}

func NewBusEmitter(bus EventBus.Bus) Emitter {
	return &busEmitter{bus: bus}
}

func (e *busEmitter) Emit(event models.ExtractionEvent) {
	e.bus.Publish(events.ExtractionTopic, event)
}

type fieldExtractor interface {
	ExtractBytes(payload []byte) models.Counts
}

var jsonGuards = [][]byte{[]byte("for(;;);"), []byte("while(1);")}

type observer struct {
	extractor fieldExtractor
	emitter   Emitter
}

// observe never fails: anything unexpected is only logged.
func (o *observer) observe(url string, body []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("interceptor recovered while observing %s: %v", url, r)
		}
	}()

	id := models.EntityIDFromAPIURL(url)
	counts := o.extractor.ExtractBytes(stripGuards(body))
	if id == "" || counts.Empty() {
		metrics.ExtractionsCounter.WithLabelValues("empty").Inc()
		log.Debugf("no counts found in %s", url)
		return
	}

	metrics.ExtractionsCounter.WithLabelValues("found").Inc()
	o.emitter.Emit(models.ExtractionEvent{
		EntityID: id,
		Applies:  counts.Applies,
		Views:    counts.Views,
		Source:   models.SourcePageIntercept,
	})
}

func stripGuards(body []byte) []byte {
	body = bytes.TrimSpace(body)
	for _, guard := range jsonGuards {
		if bytes.HasPrefix(body, guard) {
			return bytes.TrimSpace(body[len(guard):])
		}
	}
	return body
}
