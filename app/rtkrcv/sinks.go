/*------------------------------------------------------------------------------
* sinks.go : solution sinks of rtkrcv (influxdb, clickhouse, mongodb,
*            elasticsearch)
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  sinks fed from the server solution channel, one
*                           record type shared by all sinks
*-----------------------------------------------------------------------------*/
package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"gnssrtk"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/jmoiron/sqlx"
	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const sinkTimeout = 5 * time.Second

// solRecord is one solution as stored by the sinks.
type solRecord struct {
	Session string    `json:"session" bson:"session"`
	Time    time.Time `json:"time" bson:"time"` /* utc */
	Stat    int       `json:"stat" bson:"stat"`
	Ns      int       `json:"ns" bson:"ns"`
	Lat     float64   `json:"lat" bson:"lat"` /* deg */
	Lon     float64   `json:"lon" bson:"lon"` /* deg */
	Hgt     float64   `json:"hgt" bson:"hgt"` /* ellipsoidal height (m) */
	E       float64   `json:"e" bson:"e"`     /* baseline east (m) */
	N       float64   `json:"n" bson:"n"`     /* baseline north (m) */
	U       float64   `json:"u" bson:"u"`     /* baseline up (m) */
	SdE     float64   `json:"sde" bson:"sde"`
	SdN     float64   `json:"sdn" bson:"sdn"`
	SdU     float64   `json:"sdu" bson:"sdu"`
	Age     float64   `json:"age" bson:"age"`
	Ratio   float64   `json:"ratio" bson:"ratio"`
}

func newSolRecord(session string, rs *gnssrtk.RBSol) solRecord {
	var pos, rr, enu [3]float64
	var P, Q [9]float64

	sol := &rs.Sol
	t := gnssrtk.GpsT2Utc(sol.Time)
	gnssrtk.Ecef2Pos(sol.Rr[:], pos[:])
	sol.Sol2Cov(P[:])
	gnssrtk.Cov2Enu(pos[:], P[:], Q[:])

	rec := solRecord{
		Session: session,
		Time:    time.Unix(t.Time, int64(t.Sec*1e9)).UTC(),
		Stat:    int(sol.Stat),
		Ns:      int(sol.Ns),
		Lat:     pos[0] * gnssrtk.R2D,
		Lon:     pos[1] * gnssrtk.R2D,
		Hgt:     pos[2],
		SdE:     math.Sqrt(math.Max(Q[0], 0)),
		SdN:     math.Sqrt(math.Max(Q[4], 0)),
		SdU:     math.Sqrt(math.Max(Q[8], 0)),
		Age:     float64(sol.Age),
		Ratio:   float64(sol.Ratio),
	}
	if gnssrtk.Norm(rs.Rb[:], 3) > 0.0 {
		var posb [3]float64
		for i := 0; i < 3; i++ {
			rr[i] = sol.Rr[i] - rs.Rb[i]
		}
		gnssrtk.Ecef2Pos(rs.Rb[:], posb[:])
		gnssrtk.Ecef2Enu(posb[:], rr[:], enu[:])
		rec.E, rec.N, rec.U = enu[0], enu[1], enu[2]
	}
	return rec
}

type sink interface {
	Name() string
	Write(ctx context.Context, rec *solRecord) error
	Close(ctx context.Context) error
}

/* influxdb ------------------------------------------------------------------*/
type influxSink struct {
	client influxdb2.Client
	cfg    InfluxConfig
}

func newInfluxSink(cfg InfluxConfig) *influxSink {
	return &influxSink{client: influxdb2.NewClient(cfg.URL, cfg.Token), cfg: cfg}
}

func (s *influxSink) Name() string { return "influxdb" }

func (s *influxSink) Write(ctx context.Context, rec *solRecord) error {
	p := influxdb2.NewPointWithMeasurement("rtkpos").
		AddTag("session", rec.Session).
		AddField("lat", rec.Lat).
		AddField("lon", rec.Lon).
		AddField("hgt", rec.Hgt).
		AddField("e", rec.E).
		AddField("n", rec.N).
		AddField("u", rec.U).
		AddField("sde", rec.SdE).
		AddField("sdn", rec.SdN).
		AddField("sdu", rec.SdU).
		AddField("stat", rec.Stat).
		AddField("ns", rec.Ns).
		AddField("age", rec.Age).
		AddField("ratio", rec.Ratio).
		SetTime(rec.Time)
	return s.client.WriteAPIBlocking(s.cfg.Org, s.cfg.Bucket).WritePoint(ctx, p)
}

func (s *influxSink) Close(context.Context) error {
	s.client.Close()
	return nil
}

/* clickhouse ----------------------------------------------------------------*/
type clickHouseSink struct {
	db    *sqlx.DB
	table string
	batch int
	rows  []solRecord
}

func newClickHouseSink(ctx context.Context, cfg ClickHouseConfig) (*clickHouseSink, error) {
	db, err := sqlx.Open("clickhouse", cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "open clickhouse")
	}
	db.SetMaxOpenConns(4)
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	session String, time DateTime64(3), stat UInt8, ns UInt8,
	lat Float64, lon Float64, hgt Float64, e Float64, n Float64, u Float64,
	sde Float64, sdn Float64, sdu Float64, age Float32, ratio Float32
) ENGINE = MergeTree ORDER BY (session, time)`, cfg.Table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create clickhouse table")
	}
	return &clickHouseSink{db: db, table: cfg.Table, batch: cfg.Batch}, nil
}

func (s *clickHouseSink) Name() string { return "clickhouse" }

func (s *clickHouseSink) Write(ctx context.Context, rec *solRecord) error {
	s.rows = append(s.rows, *rec)
	if len(s.rows) < s.batch {
		return nil
	}
	return s.flush(ctx)
}

func (s *clickHouseSink) flush(ctx context.Context) error {
	if len(s.rows) == 0 {
		return nil
	}
	defer func() { s.rows = s.rows[:0] }()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "clickhouse begin")
	}
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf("INSERT INTO %s (session, time, stat, ns, lat, lon, hgt, "+
		"e, n, u, sde, sdn, sdu, age, ratio)", s.table))
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "clickhouse prepare")
	}
	defer stmt.Close()
	for i := range s.rows {
		r := &s.rows[i]
		if _, err := stmt.ExecContext(ctx, r.Session, r.Time, uint8(r.Stat), uint8(r.Ns), r.Lat, r.Lon, r.Hgt,
			r.E, r.N, r.U, r.SdE, r.SdN, r.SdU, float32(r.Age), float32(r.Ratio)); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "clickhouse insert")
		}
	}
	return errors.Wrap(tx.Commit(), "clickhouse commit")
}

func (s *clickHouseSink) Close(ctx context.Context) error {
	return multierr.Append(s.flush(ctx), s.db.Close())
}

/* mongodb -------------------------------------------------------------------*/
type mongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func newMongoSink(ctx context.Context, cfg MongoConfig) (*mongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongodb")
	}
	return &mongoSink{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}, nil
}

func (s *mongoSink) Name() string { return "mongodb" }

func (s *mongoSink) Write(ctx context.Context, rec *solRecord) error {
	_, err := s.coll.InsertOne(ctx, rec)
	return err
}

func (s *mongoSink) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

/* elasticsearch -------------------------------------------------------------*/
type elasticSink struct {
	client *elastic.Client
	index  string
	seq    uint64
}

func newElasticSink(cfg ElasticConfig) (*elasticSink, error) {
	opts := []elastic.ClientOptionFunc{elastic.SetURL(cfg.URL), elastic.SetSniff(false)}
	if cfg.User != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.User, cfg.Password))
	}
	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "connect elasticsearch")
	}
	return &elasticSink{client: client, index: cfg.Index}, nil
}

func (s *elasticSink) Name() string { return "elasticsearch" }

func (s *elasticSink) Write(ctx context.Context, rec *solRecord) error {
	s.seq++
	_, err := s.client.Index().
		Index(s.index).
		Id(fmt.Sprintf("%s-%d", rec.Session, s.seq)).
		BodyJson(rec).
		Do(ctx)
	return err
}

func (s *elasticSink) Close(context.Context) error {
	s.client.Stop()
	return nil
}

// openSinks opens the configured sinks. On error the sinks already opened
// are closed.
func openSinks(ctx context.Context, cfg SinksConfig) ([]sink, error) {
	var sinks []sink
	fail := func(err error) ([]sink, error) {
		return nil, multierr.Append(err, closeSinks(ctx, sinks))
	}
	if cfg.Influx.URL != "" {
		sinks = append(sinks, newInfluxSink(cfg.Influx))
	}
	if cfg.ClickHouse.DSN != "" {
		s, err := newClickHouseSink(ctx, cfg.ClickHouse)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Mongo.URI != "" {
		s, err := newMongoSink(ctx, cfg.Mongo)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Elastic.URL != "" {
		s, err := newElasticSink(cfg.Elastic)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func closeSinks(ctx context.Context, sinks []sink) error {
	var err error
	for _, s := range sinks {
		err = multierr.Append(err, errors.Wrapf(s.Close(ctx), "close %s", s.Name()))
	}
	return err
}

// dispatchSols writes every valid solution to the sinks until the channel is
// closed. Sink errors are logged and do not stop the dispatch.
func dispatchSols(ch <-chan gnssrtk.RBSol, session string, sinks []sink, log *zap.SugaredLogger) (n int) {
	for rs := range ch {
		if rs.Sol.Stat == gnssrtk.SOLQ_NONE {
			continue
		}
		rec := newSolRecord(session, &rs)
		for _, s := range sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			if err := s.Write(ctx, &rec); err != nil {
				log.Warnw("sink write error", "sink", s.Name(), "error", err)
			}
			cancel()
		}
		n++
	}
	return n
}
