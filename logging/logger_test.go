package logging

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatterLine(t *testing.T) {
	f := &CustomFormatter{SystemName: "easypm"}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "Event ID: TEST, Description: something happened",
		Data:    logrus.Fields{"project": "p1", "action": "Created"},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.Contains(t, line, "Date: 2024-03-01, Time: 14:05:09, ")
	assert.Contains(t, line, "Event Source: easypm, ")
	assert.Contains(t, line, "Event Type: WARNING, ")
	assert.Contains(t, line, "Message: Event ID: TEST, Description: something happened")
	assert.Contains(t, line, ", action=Created, project=p1")
	assert.Equal(t, byte('\n'), out[len(out)-1])
}
