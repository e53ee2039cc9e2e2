package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/zsiec/tsproto/descriptor"
	"github.com/zsiec/tsproto/mpegts"
	"github.com/zsiec/tsproto/pipeline"
	"github.com/zsiec/tsproto/psi"
)

const maxReportedErrors = 20

type report struct {
	Source          string          `json:"source" yaml:"source"`
	Packets         int64           `json:"packets" yaml:"packets"`
	Duration        string          `json:"duration" yaml:"duration"`
	Discontinuities map[string]int  `json:"discontinuities,omitempty" yaml:"discontinuities,omitempty"`
	Errors          []string        `json:"errors,omitempty" yaml:"errors,omitempty"`
	ErrorCount      int64           `json:"errorCount" yaml:"errorCount"`
	PAT             *patReport      `json:"pat,omitempty" yaml:"pat,omitempty"`
	Programs        []programReport `json:"programs,omitempty" yaml:"programs,omitempty"`
	Tables          []string        `json:"tables,omitempty" yaml:"tables,omitempty"`
}

type patReport struct {
	TransportStreamID uint16 `json:"transportStreamId" yaml:"transportStreamId"`
	Version           uint8  `json:"version" yaml:"version"`
	NetworkPID        string `json:"networkPid,omitempty" yaml:"networkPid,omitempty"`
}

type programReport struct {
	Number      uint16             `json:"number" yaml:"number"`
	PMTPID      string             `json:"pmtPid" yaml:"pmtPid"`
	Version     uint8              `json:"version" yaml:"version"`
	PCRPID      string             `json:"pcrPid" yaml:"pcrPid"`
	Descriptors []descriptorRecord `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
	Streams     []streamReport     `json:"streams" yaml:"streams"`
}

type streamReport struct {
	PID         string             `json:"pid" yaml:"pid"`
	StreamType  uint8              `json:"streamType" yaml:"streamType"`
	Codec       string             `json:"codec" yaml:"codec"`
	Descriptors []descriptorRecord `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
}

type descriptorRecord struct {
	Tag    uint8  `json:"tag" yaml:"tag"`
	Name   string `json:"name" yaml:"name"`
	Fields any    `json:"fields" yaml:"fields"`
}

func describe(ds []descriptor.Descriptor) []descriptorRecord {
	out := make([]descriptorRecord, 0, len(ds))
	for _, d := range ds {
		out = append(out, descriptorRecord{Tag: d.Tag(), Name: descriptor.Name(d.Tag()), Fields: d})
	}
	return out
}

// collector folds pipeline events into a report. Its handle method is safe
// for concurrent use so one collector can serve several streams.
type collector struct {
	mu      sync.Mutex
	rep     report
	pat     *psi.PAT
	pmts    map[uint16]psi.PMT
	pmtPIDs map[uint16]mpegts.PID
	tables  map[psi.Identity]bool
	onEvent func(pipeline.Event)
}

func newCollector(source string, onEvent func(pipeline.Event)) *collector {
	return &collector{
		rep:     report{Source: source},
		pmts:    make(map[uint16]psi.PMT),
		pmtPIDs: make(map[uint16]mpegts.PID),
		tables:  make(map[psi.Identity]bool),
		onEvent: onEvent,
	}
}

func (c *collector) handle(ev pipeline.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case pipeline.EventDiscontinuity:
		if c.rep.Discontinuities == nil {
			c.rep.Discontinuities = make(map[string]int)
		}
		c.rep.Discontinuities[ev.PID.String()]++
	case pipeline.EventPAT:
		c.pat = ev.PAT
	case pipeline.EventPMT:
		c.pmts[ev.PMT.ProgramNumber] = *ev.PMT
		c.pmtPIDs[ev.PMT.ProgramNumber] = ev.PID
	case pipeline.EventTable:
		c.tables[ev.Table[0].Identity()] = true
	case pipeline.EventError:
		c.rep.ErrorCount++
		if len(c.rep.Errors) < maxReportedErrors {
			c.rep.Errors = append(c.rep.Errors, fmt.Sprintf("packet %d: %v", ev.Packet, ev.Err))
		}
	}
	if c.onEvent != nil {
		c.onEvent(ev)
	}
}

// finish completes the report with the run statistics.
func (c *collector) finish(stats pipeline.Stats) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	rep := c.rep
	rep.Packets = stats.Packets
	rep.Duration = stats.Duration.String()
	if c.pat != nil {
		rep.PAT = &patReport{TransportStreamID: c.pat.TransportStreamID, Version: c.pat.Version}
		if c.pat.NetworkPID != 0 {
			rep.PAT.NetworkPID = c.pat.NetworkPID.String()
		}
	}

	numbers := make([]int, 0, len(c.pmts))
	for n := range c.pmts {
		numbers = append(numbers, int(n))
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		pmt := c.pmts[uint16(n)]
		pr := programReport{
			Number:      pmt.ProgramNumber,
			PMTPID:      c.pmtPIDs[pmt.ProgramNumber].String(),
			Version:     pmt.Version,
			PCRPID:      pmt.PCRPID.String(),
			Descriptors: describe(pmt.ProgramInfo),
		}
		for _, es := range pmt.Streams {
			pr.Streams = append(pr.Streams, streamReport{
				PID:         es.PID.String(),
				StreamType:  uint8(es.StreamType),
				Codec:       es.StreamType.String(),
				Descriptors: describe(es.Descriptors),
			})
		}
		rep.Programs = append(rep.Programs, pr)
	}

	for id := range c.tables {
		rep.Tables = append(rep.Tables, id.String())
	}
	sort.Strings(rep.Tables)
	return rep
}

// writeStructured encodes v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeReport(w io.Writer, format string, rep report) error {
	if format == "json" || format == "yaml" {
		return writeStructured(w, format, rep)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "source\t%s\n", rep.Source)
	fmt.Fprintf(tw, "packets\t%d\n", rep.Packets)
	fmt.Fprintf(tw, "duration\t%s\n", rep.Duration)
	if rep.PAT != nil {
		fmt.Fprintf(tw, "transport stream id\t%d (PAT v%d)\n", rep.PAT.TransportStreamID, rep.PAT.Version)
	}
	for _, p := range rep.Programs {
		fmt.Fprintf(tw, "program %d\tPMT %s v%d, PCR %s\n", p.Number, p.PMTPID, p.Version, p.PCRPID)
		for _, s := range p.Streams {
			fmt.Fprintf(tw, "  %s\t%s (0x%02X)\n", s.PID, s.Codec, s.StreamType)
		}
	}
	for _, t := range rep.Tables {
		fmt.Fprintf(tw, "table\t%s\n", t)
	}
	pids := make([]string, 0, len(rep.Discontinuities))
	for pid := range rep.Discontinuities {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	for _, pid := range pids {
		fmt.Fprintf(tw, "discontinuities %s\t%d\n", pid, rep.Discontinuities[pid])
	}
	fmt.Fprintf(tw, "errors\t%d\n", rep.ErrorCount)
	for _, e := range rep.Errors {
		fmt.Fprintf(tw, "  \t%s\n", e)
	}
	return tw.Flush()
}
