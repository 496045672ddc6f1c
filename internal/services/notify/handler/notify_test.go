package handler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildSaleMessage(t *testing.T) {
	msg := BuildSaleMessage("Dana Levi", "Webinar Plan", decimal.NewFromInt(1790))
	assert.Equal(t, "New sale! Dana Levi purchased Webinar Plan for 1790", msg)
}

func TestBuildBonusMessage(t *testing.T) {
	msg := BuildBonusMessage("Omer", "Silver", decimal.NewFromInt(2200))
	assert.Equal(t, "Omer reached the Silver bonus tier and earned 2200!", msg)
}

func TestBuildMilestoneMessage(t *testing.T) {
	msg := BuildMilestoneMessage("Noa", "100 clients")
	assert.Equal(t, "Noa hit a milestone: 100 clients", msg)
}
