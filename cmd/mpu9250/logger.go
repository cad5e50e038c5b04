package main

import (
	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

func GetLogger(level string) *logrus.Entry {
	logrus.ErrorKey = "$error"
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	customFormatter := new(prefixed.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	customFormatter.SpacePadding = 50
	logger.SetFormatter(customFormatter)
	entry := logrus.NewEntry(logger)
	if err != nil {
		entry.WithError(err).Warn("bad log level, using info")
	}
	return entry
}
