package broadcast

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/oscmix/spatializer/internal/broadcast"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
