package propagation

import (
	"fmt"
	"strings"

	satellite "github.com/joshuaferrara/go-satellite"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go (no CGO), explicit TEME output, includes ECIToECEF and
// GSTimeFromDate for cross-validation. WGS-72 gravity constants are used
// for the model itself: NORAD mean elements are fitted against WGS-72, so
// mixing in WGS-84 here would quietly bias the propagation.
//
// Note: Propagate() takes Satellite by value, so SGP4 error codes raised
// during propagation are not visible to the caller. Failures are detected
// by checking the output for NaN/Inf and implausible geometry instead.

// initSGP4 initializes the SGP4 model from element lines.
//
// Pre-validates the line format first, because go-satellite calls log.Fatal
// on malformed input (which would kill the process).
func initSGP4(line1, line2 string) (satellite.Satellite, error) {
	if err := validateLines(line1, line2); err != nil {
		return satellite.Satellite{}, err
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return satellite.Satellite{}, fmt.Errorf("sgp4 init failed: code=%d %s", sat.Error, sat.ErrorStr)
	}
	return sat, nil
}

// validateLines performs basic format validation on element lines.
func validateLines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}
