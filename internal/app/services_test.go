package app

import (
	"testing"

	"github.com/stakequest/stakequest-backend/internal/services"
)

func TestInitialAPYBp(t *testing.T) {
	cases := []struct {
		name string
		cfg  *services.StrategyConfig
		want int
	}{
		{"nil config", nil, services.DefaultAPYBp},
		{"zero apy", &services.StrategyConfig{}, services.DefaultAPYBp},
		{"configured apy", &services.StrategyConfig{CurrentAPYBp: 750}, 750},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := initialAPYBp(tc.cfg); got != tc.want {
				t.Fatalf("initialAPYBp: want=%d got=%d", tc.want, got)
			}
		})
	}
}
