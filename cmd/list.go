package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/smazurov/capturenode/internal/devices"
	"github.com/smazurov/capturenode/internal/logging"
	"github.com/spf13/cobra"
)

// CreateListCmd creates the list command.
func CreateListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List video capture devices",
		Long: `Enumerates the video capture devices visible on this host and prints ` +
			`each device's identity and supported capture modes.`,
		Run: func(_ *cobra.Command, _ []string) {
			// Keep stdout clean for the listing itself
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			enum := devices.NewEnumerator()
			found, err := enum.Enumerate()
			if err != nil && !devices.IsNoDevices(err) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			if jsonOutput {
				printDevicesJSON(found)
				return
			}
			printDevicesText(found)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print devices as JSON")

	return cmd
}

func printDevicesText(found []devices.CaptureDevice) {
	if len(found) == 0 {
		fmt.Println("No video capture devices found.")
		return
	}

	for i, device := range found {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(deviceLabel(device))
		for _, res := range device.Resolutions {
			fmt.Printf("  %dx%d @ %.2f fps\n", res.Width, res.Height, res.FrameRate)
		}
	}
}

func printDevicesJSON(found []devices.CaptureDevice) {
	type resolutionJSON struct {
		Width     uint32  `json:"width"`
		Height    uint32  `json:"height"`
		FrameRate float64 `json:"frame_rate"`
	}
	type deviceJSON struct {
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Orientation *int             `json:"orientation,omitempty"`
		Position    *string          `json:"position,omitempty"`
		Resolutions []resolutionJSON `json:"resolutions"`
	}

	out := make([]deviceJSON, 0, len(found))
	for _, device := range found {
		resolutions := make([]resolutionJSON, 0, len(device.Resolutions))
		for _, res := range device.Resolutions {
			resolutions = append(resolutions, resolutionJSON{
				Width:     res.Width,
				Height:    res.Height,
				FrameRate: res.FrameRate,
			})
		}
		var position *string
		if device.Position != nil {
			p := string(*device.Position)
			position = &p
		}
		out = append(out, deviceJSON{
			Name:        device.Name,
			Description: device.Description,
			Orientation: device.Orientation,
			Position:    position,
			Resolutions: resolutions,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

// deviceLabel formats a device for terminal output. Devices without a
// stable name show just the description.
func deviceLabel(device devices.CaptureDevice) string {
	if device.Name == "" {
		return device.Description
	}
	return fmt.Sprintf("%s (%s)", device.Description, device.Name)
}
