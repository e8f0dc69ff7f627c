// Package logging provides the verbosity-gated log sink shared by the
// enet transports.
//
// A Logger wraps a logrus entry and adds a numeric verbosity threshold:
//
//	0  silent
//	1  informational messages
//	2  informational and error messages
//	3  everything, including debug messages
//
// Derived loggers created with WithField, WithFields or WithError share the
// threshold and the underlying logrus output.
package logging
