// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skycoord/fleet/pkg/core"
)

// FlightLog is the root JSON structure of an exported session
type FlightLog struct {
	SessionName string               `json:"sessionName"`
	Version     string               `json:"version"`
	StartedAt   string               `json:"startedAt"`
	Vehicles    []VehicleJSON        `json:"vehicles"`
	Missions    []core.Mission       `json:"missions"`
	Events      [][]any              `json:"events"`
	Risks       []core.CollisionRisk `json:"collisionRisks"`
	Weather     []core.WeatherData   `json:"weather"`
	Obstacles   []core.Obstacle      `json:"obstacles"`
	Statistics  []core.Statistics    `json:"statistics"`
}

// VehicleJSON represents a vehicle and its compacted telemetry track
type VehicleJSON struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities"`
	JoinTime     string   `json:"joinTime"`
	// Track rows: [time, lat, lon, alt, battery, status]
	Track [][]any `json:"track"`
}

// exportJSON writes the session data to a JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	name := strings.ReplaceAll(b.session.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	timestamp := b.session.StartedAt.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() FlightLog {
	export := FlightLog{
		SessionName: b.session.Name,
		Version:     b.session.Version,
		StartedAt:   b.session.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Vehicles:    make([]VehicleJSON, 0, len(b.order)),
		Missions:    append([]core.Mission(nil), b.missions...),
		Events:      make([][]any, 0, len(b.events)),
		Risks:       append([]core.CollisionRisk(nil), b.risks...),
		Weather:     append([]core.WeatherData(nil), b.weather...),
		Obstacles:   append([]core.Obstacle(nil), b.obstacles...),
		Statistics:  append([]core.Statistics(nil), b.stats...),
	}

	for _, id := range b.order {
		record := b.vehicles[id]
		vj := VehicleJSON{
			ID:           record.Vehicle.ID,
			Capabilities: record.Vehicle.CapabilityList(),
			JoinTime:     record.Vehicle.LastUpdate.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Track:        make([][]any, 0, len(record.Track)),
		}
		for _, sample := range record.Track {
			vj.Track = append(vj.Track, []any{
				sample.Time.UTC().Format("2006-01-02T15:04:05Z07:00"),
				sample.Position.Lat,
				sample.Position.Lon,
				sample.Position.Alt,
				sample.Battery,
				sample.Status,
			})
		}
		export.Vehicles = append(export.Vehicles, vj)
	}

	for _, e := range b.events {
		export.Events = append(export.Events, []any{
			e.Time.UTC().Format("2006-01-02T15:04:05Z07:00"),
			string(e.Kind),
			e.VehicleID,
			e.MissionID,
			e.Detail,
		})
	}

	return export
}

func (b *Backend) writeJSON(path string, export FlightLog) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode flight log: %w", err)
	}
	return nil
}

func (b *Backend) writeGzipJSON(path string, export FlightLog) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	enc := json.NewEncoder(gz)
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode flight log: %w", err)
	}
	return nil
}
