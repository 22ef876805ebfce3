package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gatherly/companion/internal/transform"
)

var transformOut string

var transformCmd = &cobra.Command{
	Use:   "transform <entity> <input.json>",
	Short: "Normalize a JSON file of raw records offline",
	Long:  "Reads an array of raw backend records from a file, runs the entity's transformer, and writes the normalized records as JSON. Entities: agenda, attendee, dining, sponsor, company.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, path := args[0], args[1]

		tf, err := newTransformers(cfg.Backend.Overlay)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrap(err, "read input")
		}

		var raws []map[string]any
		if err := json.Unmarshal(data, &raws); err != nil {
			// Allow a single object as input.
			var one map[string]any
			if err2 := json.Unmarshal(data, &one); err2 != nil {
				return eris.Wrap(err, "parse input")
			}
			raws = []map[string]any{one}
		}

		var out any
		switch entity {
		case "agenda":
			out, err = tf.Agenda.FromDatabaseAll(raws)
		case "attendee", "attendees":
			out, err = tf.Attendees.FromDatabaseAll(raws)
		case "dining":
			out, err = tf.Dining.FromDatabaseAll(raws)
		case "sponsor", "sponsors":
			out, err = tf.Sponsors.FromDatabaseAll(raws)
		case "company", "companies":
			out, err = tf.Companies.FromDatabaseAll(raws)
		default:
			return eris.Errorf("unknown entity %q", entity)
		}
		if err != nil {
			if terr, ok := transform.AsError(err); ok {
				zap.L().Error("transform failed",
					zap.String("entity", entity),
					zap.String("code", string(terr.Code)),
					zap.String("field", terr.Field),
				)
			}
			return err
		}

		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode output")
		}
		encoded = append(encoded, '\n')

		if transformOut == "" || transformOut == "-" {
			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		}
		if err := os.WriteFile(transformOut, encoded, 0o644); err != nil {
			return eris.Wrap(err, "write output")
		}

		zap.L().Info("transform complete",
			zap.String("entity", entity),
			zap.Int("records", len(raws)),
			zap.String("out", transformOut),
		)
		return nil
	},
}

func init() {
	transformCmd.Flags().StringVar(&transformOut, "out", "-", "output file (- for stdout)")
	rootCmd.AddCommand(transformCmd)
}
