// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package db

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsOperationFailure reports whether err was reported by the server for a
// command or write, as opposed to a client-side, network or decoding error.
func IsOperationFailure(err error) bool {
	if err == nil {
		return false
	}
	var se mongo.ServerError
	return errors.As(err, &se)
}
