package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncLogger_Level(t *testing.T) {
	out := &bytes.Buffer{}
	fl := NewFuncLogger(true, InfoLvl, func(level Level, fields Fields, b []byte) error {
		_, err := out.Write(b)
		return err
	})

	fl.Infof("info")
	fl.Debugf("debug")
	fl.Warnf("warn")
	fl.Errorf("error")

	s := out.String()
	require.Contains(t, s, "info")
	require.NotContains(t, s, "debug")
	require.Contains(t, s, "warn\nerror\n")
}

func TestFuncLogger_Fields(t *testing.T) {
	var got []Fields
	fl := NewFuncLogger(false, DebugLvl, func(level Level, fields Fields, b []byte) error {
		got = append(got, fields)
		return nil
	})

	fl.Infof("plain")
	withBuild := fl.WithFields(Fields{FieldNameBuildID: "42"})
	withBuild.WithFields(Fields{FieldNameCombination: "command=test"}).Infof("both")
	withBuild.Infof("build")

	assert.Equal(t, []Fields{
		nil,
		{FieldNameBuildID: "42", FieldNameCombination: "command=test"},
		{FieldNameBuildID: "42"},
	}, got)
}

func TestFuncLogger_Writer(t *testing.T) {
	out := &bytes.Buffer{}
	fl := NewLogger(InfoLvl, out)

	_, err := fl.Writer(DebugLvl).Write([]byte("hidden"))
	require.NoError(t, err)
	n, err := fl.Writer(InfoLvl).Write([]byte("shown"))
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, "shown", out.String())
}
