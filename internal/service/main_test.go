package service

import (
	"os"
	"testing"

	"github.com/emrgen/folio/internal/tester"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.WarnLevel)

	tester.Setup()
	code := m.Run()
	tester.RemoveDBFile()

	os.Exit(code)
}
