package graph

import (
	"context"
	"fmt"

	"hwids/internal/lookup"
	"hwids/internal/textutil"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Querier resolves vendor and device names from the graph.
type Querier struct {
	driver neo4j.DriverWithContext
}

// NewQuerier creates a new graph querier.
func NewQuerier(driver neo4j.DriverWithContext) *Querier {
	return &Querier{driver: driver}
}

// single runs a read query expected to return at most one "name" value.
func (q *Querier) single(ctx context.Context, cypher string, params map[string]any) (string, bool, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return "", false, err
	}
	if !result.Next(ctx) {
		return "", false, result.Err()
	}
	name, _ := result.Record().Get("name")
	return fmt.Sprintf("%v", name), true, nil
}

func (q *Querier) Vendor(ctx context.Context, vendorID string) (string, error) {
	name, ok, err := q.single(ctx, `
		MATCH (v:Vendor {id: $id})
		RETURN v.name AS name
	`, map[string]any{"id": textutil.NormalizeID(vendorID)})
	if err != nil {
		return "", fmt.Errorf("query vendor %s: %w", vendorID, err)
	}
	if !ok {
		return "", fmt.Errorf("vendor %s: %w", vendorID, lookup.ErrNotFound)
	}
	return name, nil
}

func (q *Querier) Device(ctx context.Context, vendorID, deviceID string) (string, error) {
	name, ok, err := q.single(ctx, `
		MATCH (:Vendor {id: $vendor_id})-[:MAKES]->(d:Device {id: $id})
		RETURN d.display_name AS name
	`, map[string]any{
		"vendor_id": textutil.NormalizeID(vendorID),
		"id":        textutil.NormalizeID(deviceID),
	})
	if err != nil {
		return "", fmt.Errorf("query device %s:%s: %w", vendorID, deviceID, err)
	}
	if !ok {
		return "", fmt.Errorf("device %s:%s: %w", vendorID, deviceID, lookup.ErrNotFound)
	}
	return name, nil
}

// Names retrieves every vendor name and device display name in the graph, in
// the shape cache.NameCache.Preload takes.
func (q *Querier) Names(ctx context.Context) (map[string]string, map[string]map[string]string, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (v:Vendor)
		OPTIONAL MATCH (v)-[:MAKES]->(d:Device)
		RETURN v.id AS vendor_id, v.name AS vendor_name, d.id AS device_id, d.display_name AS device_name
	`, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("query names: %w", err)
	}

	vendors := make(map[string]string)
	devices := make(map[string]map[string]string)
	for result.Next(ctx) {
		record := result.Record()
		vid, _ := record.Get("vendor_id")
		vname, _ := record.Get("vendor_name")
		did, _ := record.Get("device_id")
		dname, _ := record.Get("device_name")

		key := fmt.Sprintf("%v", vid)
		vendors[key] = fmt.Sprintf("%v", vname)
		if did == nil {
			continue
		}
		if devices[key] == nil {
			devices[key] = make(map[string]string)
		}
		devices[key][fmt.Sprintf("%v", did)] = fmt.Sprintf("%v", dname)
	}
	if err := result.Err(); err != nil {
		return nil, nil, fmt.Errorf("read names: %w", err)
	}

	log.Info().Int("vendors", len(vendors)).Msg("Loaded names from graph")
	return vendors, devices, nil
}
