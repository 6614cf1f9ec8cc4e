// Package ingest implements addresskit's top-level orchestrator (spec §4.8,
// component C8): it sequences the package manifest cache (C7), fetcher
// (C1), extractor (C2), authority index (C3), CSV driver (C5), row mapper
// (C4), and bulk sink (C6) into one ingestion run.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/gnaf-kit/addresskit/internal/address"
	"github.com/gnaf-kit/addresskit/internal/archive"
	"github.com/gnaf-kit/addresskit/internal/authority"
	"github.com/gnaf-kit/addresskit/internal/config"
	"github.com/gnaf-kit/addresskit/internal/csvstream"
	"github.com/gnaf-kit/addresskit/internal/fetch"
	"github.com/gnaf-kit/addresskit/internal/manifest"
	"github.com/gnaf-kit/addresskit/internal/searchindex"
	"github.com/gnaf-kit/addresskit/internal/telemetry"
	"github.com/gnaf-kit/addresskit/internal/xerr"
)

var tracer = otel.Tracer("github.com/gnaf-kit/addresskit/internal/ingest")

// Orchestrator is the top-level ingestion driver (spec §4.8). Construct one
// per run; it holds no state across runs beyond what's persisted on disk by
// its collaborators.
type Orchestrator struct {
	Config        *config.Config
	ManifestCache *manifest.Cache
	Fetcher       *fetch.Fetcher
	Extractor     *archive.Extractor
	Backend       searchindex.Backend
	Sink          *searchindex.Sink

	state State
}

// HTTPManifestFetcher adapts an *http.Client to manifest.Fetcher for the
// plain GET the package manifest cache issues on a cache miss/refresh.
type HTTPManifestFetcher struct {
	Client *http.Client
}

func (f HTTPManifestFetcher) Fetch(ctx context.Context, url string) ([]byte, map[string][]string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("manifest: unexpected status %s for %s", resp.Status, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return body, map[string][]string(resp.Header), nil
}

// State reports the orchestrator's current lifecycle stage.
func (o *Orchestrator) State() State { return o.state }

func (o *Orchestrator) setState(ctx context.Context, s State) {
	o.state = s
	slog.InfoContext(ctx, "ingest: state transition", "state", s)
}

// Run executes one full ingestion (spec §4.8 steps 1-8). It returns the
// first fatal error encountered; non-fatal per-row issues are logged and do
// not abort the run.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := time.Now()
	ctx = telemetry.WithFields(ctx, "run_id", uuid.NewString())
	ctx, span := tracer.Start(ctx, "ingest.Run")
	defer span.End()

	o.setState(ctx, StateManifest)
	zip, err := o.resolveActiveZip(ctx)
	if err != nil {
		o.setState(ctx, StateFailed)
		return err
	}

	o.setState(ctx, StateFetching)
	archivePath := filepath.Join(o.Config.GNAFDir, filepath.Base(zip.URL))
	if err := o.Fetcher.Fetch(ctx, zip.URL, archivePath, &fetch.Options{ExpectedSize: zip.Size}); err != nil {
		o.setState(ctx, StateFailed)
		return fmt.Errorf("ingest: fetching archive: %w", err)
	}

	o.setState(ctx, StateExtracting)
	extractedDir := archivePath[:len(archivePath)-len(filepath.Ext(archivePath))]
	if err := o.Extractor.Extract(ctx, archivePath, extractedDir); err != nil {
		o.setState(ctx, StateFailed)
		return fmt.Errorf("ingest: extracting archive: %w", err)
	}

	idx, err := o.loadAuthority(ctx, extractedDir)
	if err != nil {
		o.setState(ctx, StateFailed)
		return fmt.Errorf("ingest: loading authority tables: %w", err)
	}

	if o.Config.Clear {
		if err := o.Backend.DropIndex(ctx); err != nil {
			o.setState(ctx, StateFailed)
			return fmt.Errorf("ingest: dropping index: %w", err)
		}
		if err := o.Backend.CreateIndex(ctx, toBackendSynonyms(idx.Synonyms())); err != nil {
			o.setState(ctx, StateFailed)
			return fmt.Errorf("ingest: creating index: %w", err)
		}
	}

	regions := o.Config.CoveredStates
	if len(regions) == 0 {
		regions = config.AllRegions
	}
	for _, region := range regions {
		if err := o.loadRegion(ctx, extractedDir, region, idx); err != nil {
			o.setState(ctx, StateFailed)
			return fmt.Errorf("ingest: loading region %s: %w", region, err)
		}
	}

	o.setState(ctx, StateComplete)
	slog.InfoContext(ctx, "ingest: run complete", "elapsed", time.Since(start), "regions", len(regions))
	return nil
}

func (o *Orchestrator) resolveActiveZip(ctx context.Context) (manifest.Resource, error) {
	entry, stale, err := o.ManifestCache.Get(ctx, o.Config.ManifestURL)
	if err != nil {
		return manifest.Resource{}, fmt.Errorf("ingest: fetching manifest: %w", err)
	}
	if stale {
		slog.WarnContext(ctx, "ingest: serving stale package manifest", "url", o.Config.ManifestURL)
	}
	doc, err := manifest.ParseDocument(entry.Body)
	if err != nil {
		return manifest.Resource{}, err
	}
	zip, ok := doc.ActiveZip()
	if !ok {
		return manifest.Resource{}, xerr.New("ingest.resolveActiveZip", xerr.ErrStructural, "no active application/zip resource in manifest", nil)
	}
	return zip, nil
}

// loadAuthority loads all nine authority tables (spec §4.3), reset fresh
// for this run.
func (o *Orchestrator) loadAuthority(ctx context.Context, extractedDir string) (*authority.Index, error) {
	idx := authority.New()
	driver := &csvstream.Driver{Delimiter: '|'}

	for table, filename := range authorityFiles {
		path := filepath.Join(extractedDir, "Authority Code", filename)
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", filename, err)
		}
		var codes []authority.Code
		_, err = driver.Stream(ctx, f, 0, func(_ context.Context, rows []csvstream.Record) error {
			for _, rec := range rows {
				codes = append(codes, decodeAuthorityCode(rec))
			}
			return nil
		})
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filename, err)
		}
		idx.Load(table, codes)
	}
	return idx, nil
}

// loadRegion streams one region's constituent files in the fixed
// dependency order (spec §4.8 step 7): locality -> street-locality ->
// geocode (site, default) -> address-detail.
func (o *Orchestrator) loadRegion(ctx context.Context, extractedDir string, region config.Region, idx *authority.Index) error {
	ctx = telemetry.WithFields(ctx, "region", region)
	o.setState(ctx, StateLoading)
	slog.InfoContext(ctx, "ingest: loading region")

	localities := map[string]address.LocalityJoin{}
	if err := streamFile(ctx, localityFile(extractedDir, region), '|', func(rows []csvstream.Record) {
		for _, rec := range rows {
			pid, join := decodeLocality(rec)
			localities[pid] = join
		}
	}); err != nil {
		return fmt.Errorf("loading localities: %w", err)
	}

	streetLocalities := map[string]address.StreetLocalityJoin{}
	if err := streamFile(ctx, streetLocalityFile(extractedDir, region), '|', func(rows []csvstream.Record) {
		for _, rec := range rows {
			pid, join := decodeStreetLocality(rec)
			streetLocalities[pid] = join
		}
	}); err != nil {
		return fmt.Errorf("loading street localities: %w", err)
	}

	geocodes := map[string][]address.GeocodeInput{}
	if o.Config.EnableGeo {
		if err := streamFile(ctx, geocodeSiteFile(extractedDir, region), '|', func(rows []csvstream.Record) {
			for _, rec := range rows {
				pid, g := decodeGeocode(rec, false)
				geocodes[pid] = append(geocodes[pid], g)
			}
		}); err != nil {
			return fmt.Errorf("loading site geocodes: %w", err)
		}
		if err := streamFile(ctx, geocodeDefaultFile(extractedDir, region), '|', func(rows []csvstream.Record) {
			for _, rec := range rows {
				pid, g := decodeGeocode(rec, true)
				geocodes[pid] = append(geocodes[pid], g)
			}
		}); err != nil {
			return fmt.Errorf("loading default geocodes: %w", err)
		}
	}

	f, err := os.Open(addressDetailFile(extractedDir, region))
	if err != nil {
		return fmt.Errorf("opening address detail file: %w", err)
	}
	defer f.Close()

	driver := &csvstream.Driver{Delimiter: ',', ChunkBytes: int64(o.Config.LoadingChunkMB) << 20}
	_, err = driver.Stream(ctx, f, 0, func(ctx context.Context, rows []csvstream.Record) error {
		var items []searchindex.BulkItem
		for _, rec := range rows {
			row := decodeAddressRow(rec)
			locality := localities[row.LocalityPID]
			streetLocality := streetLocalities[row.StreetLocalityPID]
			var site, def []address.GeocodeInput
			if o.Config.EnableGeo {
				for _, g := range geocodes[row.PID] {
					if g.IsDefault {
						def = append(def, g)
					} else {
						site = append(site, g)
					}
				}
			}

			detail, err := address.Map(ctx, idx, row, &locality, &streetLocality, site, def, o.Config.EnableGeo)
			if err != nil {
				slog.WarnContext(ctx, "ingest: dropping row with structural mapping error", "pid", row.PID, "error", err)
				continue
			}
			body, err := marshalDetail(detail)
			if err != nil {
				slog.WarnContext(ctx, "ingest: dropping row that failed to marshal", "pid", row.PID, "error", err)
				continue
			}
			items = append(items, searchindex.BulkItem{ID: address.DocumentID(detail.PID), Body: body})
		}
		if len(items) == 0 {
			return nil
		}
		return o.Sink.Submit(ctx, items, searchindex.BulkOptions{Refresh: false})
	})
	return err
}

func streamFile(ctx context.Context, path string, delim rune, onChunk func(rows []csvstream.Record)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	driver := &csvstream.Driver{Delimiter: delim}
	_, err = driver.Stream(ctx, f, 0, func(_ context.Context, rows []csvstream.Record) error {
		onChunk(rows)
		return nil
	})
	return err
}

func marshalDetail(d *address.AddressDetail) (json.RawMessage, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func toBackendSynonyms(syns []authority.Synonym) []searchindex.Synonym {
	out := make([]searchindex.Synonym, len(syns))
	for i, s := range syns {
		out[i] = searchindex.Synonym{Code: s.Code, Name: s.Name}
	}
	return out
}
