// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gosamflash

import (
	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger = nil
)

const MaxLogLevel = logrus.TraceLevel

func init() {
	logger = logrus.New()
}

// SetLogger replaces the library logger, e.g. to install a custom formatter.
func SetLogger(loggerInstance *logrus.Logger) {
	if loggerInstance == nil {
		return
	}

	logger = loggerInstance
}
