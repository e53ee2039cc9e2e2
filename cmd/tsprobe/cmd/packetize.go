package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zsiec/tsproto/bitbuf"
	"github.com/zsiec/tsproto/mpegts"
	"github.com/zsiec/tsproto/psi"
)

func (a *app) packetizeCommand() *cobra.Command {
	var (
		pid    uint16
		cc     uint8
		many   bool
		hexOut bool
	)
	cmd := &cobra.Command{
		Use:   "packetize [section files...]",
		Short: "Spread PSI sections over transport stream packets",
		Long: `packetize reads sections from files ("-" or no file for stdin) and writes the
packets carrying them to stdout. A file holds one or more sections back to
back, as binary or as hex text.

Without --many every section starts its own packet; with --many the sections
are carried as one continuous run, the way a multiplexer emits them.`,
		RunE: func(_ *cobra.Command, args []string) error {
			if !mpegts.PID(pid).Valid() {
				return fmt.Errorf("pid %d out of range", pid)
			}
			if !mpegts.ContinuityCounter(cc).Valid() {
				return fmt.Errorf("continuity counter %d out of range", cc)
			}
			if len(args) == 0 {
				args = []string{"-"}
			}

			var sections []bitbuf.Vector
			for _, name := range args {
				data, err := a.readInput(name)
				if err != nil {
					return err
				}
				got, err := splitSectionInput(data)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				sections = append(sections, got...)
			}

			packets := packetize(mpegts.PID(pid), mpegts.ContinuityCounter(cc), sections, many)
			a.log.Debug("packetized", "sections", len(sections), "packets", len(packets), "pid", mpegts.PID(pid))
			return writePackets(a.stdout, packets, hexOut)
		},
	}
	cmd.Flags().Uint16Var(&pid, "pid", 0, "PID of the output packets (0x prefix for hex)")
	cmd.Flags().Uint8Var(&cc, "cc", 0, "continuity counter of the first packet")
	cmd.Flags().BoolVar(&many, "many", false, "carry the sections as one continuous run")
	cmd.Flags().BoolVar(&hexOut, "hex", false, "write one hex line per packet instead of binary")
	return cmd
}

func packetize(pid mpegts.PID, cc mpegts.ContinuityCounter, sections []bitbuf.Vector, many bool) []mpegts.Packet {
	if many {
		return mpegts.PacketizeMany(pid, cc, sections)
	}
	var packets []mpegts.Packet
	for _, s := range sections {
		ps := mpegts.Packetize(pid, cc, s)
		packets = append(packets, ps...)
		cc += mpegts.ContinuityCounter(len(ps))
		cc &= 0x0F
	}
	return packets
}

func writePackets(w io.Writer, packets []mpegts.Packet, hexOut bool) error {
	for _, p := range packets {
		b, err := mpegts.Encode(p)
		if err != nil {
			return fmt.Errorf("encoding packet: %w", err)
		}
		if hexOut {
			_, err = fmt.Fprintln(w, hex.EncodeToString(b))
		} else {
			_, err = w.Write(b)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *app) readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(a.stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

// decodeHexInput returns data hex-decoded when it is hex text, ignoring
// whitespace, and data unchanged otherwise.
func decodeHexInput(data []byte) []byte {
	text := strings.Join(strings.Fields(string(data)), "")
	if text == "" {
		return data
	}
	b, err := hex.DecodeString(text)
	if err != nil {
		return data
	}
	return b
}

// splitSectionInput cuts data into the sections it holds back to back.
func splitSectionInput(data []byte) ([]bitbuf.Vector, error) {
	data = decodeHexInput(data)
	var sections []bitbuf.Vector
	for off := 0; off < len(data); {
		n, ok := psi.SectionLength(data[off:])
		if !ok || off+n > len(data) {
			return nil, fmt.Errorf("%w: truncated section at byte %d", psi.ErrFraming, off)
		}
		sections = append(sections, bitbuf.FromBytes(data[off:off+n]))
		off += n
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: no sections", psi.ErrFraming)
	}
	return sections, nil
}
