package influx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	influxdomain "github.com/influxdata/influxdb-client-go/v2/domain"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second

	// bucketRetention keeps vivarium readings for thirty days.
	bucketRetention = 30 * 24 * time.Hour

	valueField  = "value"
	vivariumTag = "vivariumId"
)

var errBucketMissing = errors.New("bucket not found")

// Config captures the settings for connecting to InfluxDB.
type Config struct {
	URL     string
	Token   string
	Org     string
	Timeout time.Duration
}

// Store implements ports.MetricsStore with one bucket per vivarium.
type Store struct {
	client influxdb2.Client
	org    string
}

// Connect creates the client and verifies the server is healthy.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influx ping: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, errors.New("influx ping: server not healthy")
	}

	return &Store{client: client, org: cfg.Org}, nil
}

// Close releases the underlying HTTP client.
func (s *Store) Close() {
	s.client.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	healthy, err := s.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influx ping: %w", err)
	}
	if !healthy {
		return errors.New("influx ping: server not healthy")
	}
	return nil
}

func (s *Store) CreateBucket(ctx context.Context, vivariumID int64) (bool, error) {
	name := domain.BucketName(vivariumID)

	_, err := s.findBucket(ctx, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, errBucketMissing) {
		return false, err
	}

	org, err := s.client.OrganizationsAPI().FindOrganizationByName(ctx, s.org)
	if err != nil {
		return false, fmt.Errorf("find organization %s: %w", s.org, err)
	}

	rule := influxdomain.RetentionRule{EverySeconds: int64(bucketRetention / time.Second)}
	if _, err := s.client.BucketsAPI().CreateBucketWithName(ctx, org, name, rule); err != nil {
		return false, fmt.Errorf("create bucket %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) DeleteBucket(ctx context.Context, vivariumID int64) error {
	name := domain.BucketName(vivariumID)

	bucket, err := s.findBucket(ctx, name)
	if errors.Is(err, errBucketMissing) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.client.BucketsAPI().DeleteBucket(ctx, bucket); err != nil {
		return fmt.Errorf("delete bucket %s: %w", name, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, m domain.Measurement) error {
	writer := s.client.WriteAPIBlocking(s.org, domain.BucketName(m.VivariumID))
	if err := writer.WritePoint(ctx, newPoint(m)); err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context, vivariumID int64, measurement string, hours int) ([]domain.Reading, error) {
	result, err := s.client.QueryAPI(s.org).Query(ctx, latestQuery(vivariumID, measurement, hours))
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer result.Close()

	readings := []domain.Reading{}
	for result.Next() {
		rec := result.Record()
		value, ok := toFloat(rec.Value())
		if !ok {
			continue
		}
		readings = append(readings, domain.Reading{
			Time:        rec.Time(),
			Measurement: rec.Measurement(),
			Value:       value,
			Tags:        tagsOf(rec.Values()),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	return readings, nil
}

func (s *Store) findBucket(ctx context.Context, name string) (*influxdomain.Bucket, error) {
	bucket, err := s.client.BucketsAPI().FindBucketByName(ctx, name)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, errBucketMissing
		}
		return nil, fmt.Errorf("find bucket %s: %w", name, err)
	}
	return bucket, nil
}

func newPoint(m domain.Measurement) *write.Point {
	tags := make(map[string]string, len(m.Tags)+1)
	for k, v := range m.Tags {
		tags[k] = v
	}
	tags[vivariumTag] = fmt.Sprintf("%d", m.VivariumID)

	ts := m.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return write.NewPoint(m.Name, tags, map[string]interface{}{valueField: m.Value}, ts)
}

// latestQuery selects one measurement of a vivarium bucket over the last hours.
func latestQuery(vivariumID int64, measurement string, hours int) string {
	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: -%dh)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r._field == %q)
  |> sort(columns: ["_time"])`,
		domain.BucketName(vivariumID), hours, measurement, valueField)
}

// tagsOf keeps the caller tags of a flux record, dropping the columns Flux
// adds itself.
func tagsOf(values map[string]interface{}) map[string]string {
	var tags map[string]string
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.HasPrefix(k, "_") || k == "result" || k == "table" || k == vivariumTag {
			continue
		}
		s, ok := values[k].(string)
		if !ok {
			continue
		}
		if tags == nil {
			tags = make(map[string]string)
		}
		tags[k] = s
	}
	return tags
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
