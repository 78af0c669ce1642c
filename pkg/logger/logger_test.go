package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitLoggerLevels(t *testing.T) {
	InitLogger("debug")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	InitLogger("nonsense")
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())

	entry := WithComponent("jobs")
	assert.Equal(t, "jobs", entry.Data["component"])
}
