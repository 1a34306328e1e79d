package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"zoomtier/core-go/internal/config"
	"zoomtier/core-go/internal/device"
	"zoomtier/core-go/internal/policy"
	"zoomtier/core-go/internal/resolution"
	"zoomtier/core-go/internal/thresholds"
)

type resolveOutput struct {
	RawScale        float64             `json:"raw_scale"`
	DeviceType      device.Type         `json:"device_type"`
	ResponsiveScale float64             `json:"responsive_scale"`
	Level           resolution.Level    `json:"level"`
	Policy          policy.RenderPolicy `json:"policy"`
	Thresholds      thresholds.Set      `json:"thresholds"`
}

func newResolveCmd(configPath *string) *cobra.Command {
	var deviceFlag string
	var active bool

	cmd := &cobra.Command{
		Use:   "resolve <scale>",
		Short: "Resolve a raw scale to a content level on this host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("scale %q: %w", args[0], err)
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			e := newEngine(cmd.Context(), zerolog.Nop(), cfg, nil)
			t := e.CurrentDeviceType()
			if deviceFlag != "" {
				if t, err = device.ParseType(deviceFlag); err != nil {
					return err
				}
			}

			scaled := e.ResponsiveScale(raw, t)
			level, err := e.DetermineContentLevel(scaled)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resolveOutput{
				RawScale:        raw,
				DeviceType:      t,
				ResponsiveScale: scaled,
				Level:           level,
				Policy:          e.ProgressiveStyles(level, active),
				Thresholds:      e.Thresholds(),
			})
		},
	}
	cmd.Flags().StringVar(&deviceFlag, "device", "", "device type override (mobile, tablet, desktop)")
	cmd.Flags().BoolVar(&active, "active", false, "resolve styles for an active element")
	return cmd
}

func newValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the thresholds produced by the config on this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			e := newEngine(cmd.Context(), zerolog.Nop(), cfg, nil)
			res := e.ValidateThresholds()
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Valid {
				return fmt.Errorf("%d threshold violation(s)", len(res.Violations))
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
