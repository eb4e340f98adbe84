// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package device

import "fmt"

// Power is instantaneous electrical power in watts.
type Power float64

// Energy is an amount of energy in joules.
type Energy float64

// joulesPerKiloWattHour converts joules to kWh for reporting.
const joulesPerKiloWattHour = 3_600_000.0

// Watts returns the power as a plain float64.
func (p Power) Watts() float64 {
	return float64(p)
}

func (p Power) String() string {
	return fmt.Sprintf("%.2fW", float64(p))
}

// Joules returns the energy as a plain float64.
func (e Energy) Joules() float64 {
	return float64(e)
}

// KiloWattHours converts the energy to kilowatt-hours.
func (e Energy) KiloWattHours() float64 {
	return float64(e) / joulesPerKiloWattHour
}

func (e Energy) String() string {
	return fmt.Sprintf("%.4fJ", float64(e))
}
