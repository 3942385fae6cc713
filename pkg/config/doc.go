// Package config loads the mockroute configuration file.
//
// A configuration file is YAML or JSON:
//
//	error_percentage: 20
//	port: 8080
//	hostname: 0.0.0.0
//	routes:
//	  /greet:
//	    method: GET
//	    response: "hello"
//	    code: 200
//	  /flaky:
//	    error: true
//
// routes may also be a list of route objects that each carry a path.
// Route fields left out take their defaults (GET, "OK", 200, no error).
// error_percentage may be written as a number or a string; anything that
// does not parse as a non-negative integer disables injection.
package config
