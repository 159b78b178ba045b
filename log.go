package privateer

import "github.com/sirupsen/logrus"

var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used by every system in the package.
// Passing nil restores the logrus standard logger.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	log = l
}

func systemLog(system string) logrus.FieldLogger {
	return log.WithField("system", system)
}
