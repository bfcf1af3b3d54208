// Package influx mirrors outbound panel messages into InfluxDB as telemetry.
// When the server is unreachable, points are appended as line protocol to a
// gzip backup file instead.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/oscmix/spatializer/internal/config"
	"github.com/oscmix/spatializer/pkg/protocol"
)

// retention applied to buckets created by the manager
const retentionSeconds = 60 * 60 * 24 * 90

// Manager handles the InfluxDB connection and writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, cfg config.InfluxConfig, backupPath string) *Manager {
	return &Manager{
		Logger:     log,
		BackupPath: backupPath,
		cfg:        cfg,
	}
}

// Connect establishes a connection to InfluxDB, falling back to the backup
// file when the server does not answer.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.cfg.URL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		if m.BackupWriter == nil {
			m.Logger.Info().Str("backupPath", m.BackupPath).
				Msg("Failed to initialize InfluxDB client, writing to backup file")

			file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %v", err)
			}
			m.backupFile = file
			m.BackupWriter = gzip.NewWriter(file)
		}
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
		return nil
	}

	m.IsValid = true
	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.Client.OrganizationsAPI()

	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", m.cfg.Org).Msg("Error creating organization")
			return err
		}
	}

	if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)

	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(m.Writer.Errors())
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}
	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if !strings.HasSuffix(lineProtocol, "\n") {
		lineProtocol += "\n"
	}
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %s", err)
	}
	return nil
}

// Close flushes pending points and releases the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	var errs []error
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	return errors.Join(errs...)
}

// Sink mirrors protocol messages into the manager. It implements protocol.Sink.
type Sink struct {
	manager *Manager
	now     func() time.Time
}

// NewSink creates a Sink writing through m.
func NewSink(m *Manager) *Sink {
	return &Sink{manager: m, now: time.Now}
}

// Send converts m to a point and writes it. Failures are logged.
func (s *Sink) Send(m protocol.Message) {
	if err := s.manager.WritePoint(PointFromMessage(m, s.now())); err != nil {
		s.manager.Logger.Warn().Err(err).Str("address", m.Address).Msg("Failed to mirror message")
	}
}

// PointFromMessage maps a protocol message to a measurement. Object
// positions become "object_position" points tagged by object id with the
// bearing as field; snapped positions carry a float bearing and snapped=true.
// Any other message becomes a point named after its address with fields
// arg0..argN.
func PointFromMessage(m protocol.Message, ts time.Time) *influxdb2_write.Point {
	if m.Address == protocol.AddressObjectPosition && len(m.Args) == 2 {
		p := influxdb2_write.NewPointWithMeasurement("object_position").SetTime(ts)
		p.AddTag("object", fmt.Sprint(m.Args[0]))
		switch b := m.Args[1].(type) {
		case float32:
			p.AddField("bearing", float64(b))
			p.AddField("snapped", true)
		default:
			p.AddField("bearing", b)
			p.AddField("snapped", false)
		}
		return p
	}

	p := influxdb2_write.NewPointWithMeasurement(measurementName(m.Address)).SetTime(ts)
	p.AddTag("address", m.Address)
	for i, a := range m.Args {
		p.AddField(fmt.Sprintf("arg%d", i), a)
	}
	if len(m.Args) == 0 {
		p.AddField("count", 1)
	}
	return p
}

func measurementName(address string) string {
	name := strings.Trim(address, "/")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" {
		return "message"
	}
	return strings.ToLower(name)
}
