package graph

import (
	"context"
	"fmt"

	"hwids/internal/index"
	"hwids/internal/parser"
	"hwids/internal/textutil"
	"hwids/internal/worker"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// DefaultBatchSize is the number of rows sent per UNWIND statement.
const DefaultBatchSize = 500

// Builder loads a parse pass into Neo4j as (:Vendor)-[:MAKES]->(:Device).
type Builder struct {
	driver neo4j.DriverWithContext
}

// NewBuilder creates a new graph builder.
func NewBuilder(driver neo4j.DriverWithContext) *Builder {
	return &Builder{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (b *Builder) EnsureSchema(ctx context.Context) error {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT vendor_id IF NOT EXISTS FOR (v:Vendor) REQUIRE v.id IS UNIQUE",
		"CREATE CONSTRAINT device_key IF NOT EXISTS FOR (d:Device) REQUIRE (d.vendor_id, d.id) IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

const mergeVendors = `
	UNWIND $rows AS row
	MERGE (v:Vendor {id: row.id})
	SET v.name = row.name,
	    v.offset = row.offset,
	    v.line = row.line
`

const mergeDevices = `
	UNWIND $rows AS row
	MATCH (v:Vendor {id: row.vendor_id})
	MERGE (d:Device {vendor_id: row.vendor_id, id: row.id})
	SET d.raw_name = row.raw_name,
	    d.display_name = row.display_name
	MERGE (v)-[:MAKES]->(d)
`

// Load merges every vendor and device of res into the graph, batchSize rows
// per statement. Vendors go first so device rows can match their vendor.
func (b *Builder) Load(ctx context.Context, res *parser.ParseResult, batchSize int) error {
	if _, err := index.BuildOffsetIndex(res); err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	session := b.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	vendors := vendorParams(res)
	if err := b.run(ctx, session, mergeVendors, vendors, batchSize); err != nil {
		return fmt.Errorf("merge vendors: %w", err)
	}
	log.Info().Int("vendors", len(vendors)).Msg("Merged vendor nodes")

	devices := deviceParams(res)
	if err := b.run(ctx, session, mergeDevices, devices, batchSize); err != nil {
		return fmt.Errorf("merge devices: %w", err)
	}
	log.Info().Int("devices", len(devices)).Msg("Merged device nodes")

	return nil
}

func (b *Builder) run(ctx context.Context, session neo4j.SessionWithContext, cypher string, rows []any, batchSize int) error {
	for i, batch := range worker.Batch(rows, batchSize) {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, cypher, map[string]any{"rows": batch})
			if err != nil {
				return nil, err
			}
			return result.Consume(ctx)
		})
		if err != nil {
			return fmt.Errorf("batch %d: %w", i, err)
		}
		log.Debug().Int("batch", i).Int("rows", len(batch)).Msg("Graph batch written")
	}
	return nil
}

// vendorParams builds UNWIND rows for vendor nodes. IDs are normalized; if
// two vendors normalize to the same ID the first is kept.
func vendorParams(res *parser.ParseResult) []any {
	vendors := res.Vendors()
	rows := make([]any, 0, len(vendors))
	seen := make(map[string]bool, len(vendors))
	for _, v := range vendors {
		vid := textutil.NormalizeID(v.ID)
		if seen[vid] {
			continue
		}
		seen[vid] = true
		rows = append(rows, map[string]any{
			"id":     vid,
			"name":   v.Name,
			"offset": v.Offset,
			"line":   v.Line,
		})
	}
	return rows
}

// deviceParams builds UNWIND rows for device nodes. The last declaration of
// a repeated device wins.
func deviceParams(res *parser.ParseResult) []any {
	var rows []any
	pos := make(map[[2]string]int)
	for _, v := range res.Vendors() {
		vid := textutil.NormalizeID(v.ID)
		for _, d := range v.Devices {
			key := [2]string{vid, textutil.NormalizeID(d.ID)}
			row := map[string]any{
				"vendor_id":    key[0],
				"id":           key[1],
				"raw_name":     d.RawName,
				"display_name": d.DisplayName,
			}
			if i, ok := pos[key]; ok {
				rows[i] = row
				continue
			}
			pos[key] = len(rows)
			rows = append(rows, row)
		}
	}
	return rows
}
