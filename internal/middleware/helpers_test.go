package middleware_test

import (
	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/logging"
)

func quietLogger() *logrus.Logger { return logging.Discard() }
