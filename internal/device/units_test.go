// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPower(t *testing.T) {
	p := Power(123.456)
	assert.Equal(t, 123.456, p.Watts())
	assert.Equal(t, "123.46W", p.String())
}

func TestEnergy(t *testing.T) {
	e := Energy(3_600_000)
	assert.Equal(t, 3_600_000.0, e.Joules())
	assert.InDelta(t, 1.0, e.KiloWattHours(), 1e-12)
	assert.Equal(t, "3600000.0000J", e.String())
}
