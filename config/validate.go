// Copyright 2021 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/knn/model/knn"
	"github.com/juju/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// predictor names accepted by knn.ParseKind
		if err := validate.RegisterValidation("predictor", func(fl validator.FieldLevel) bool {
			_, err := knn.ParseKind(fl.Field().String())
			return err == nil
		}); err != nil {
			panic(err)
		}
		if err := validate.RegisterValidation("preset", func(fl validator.FieldLevel) bool {
			_, err := knn.Preset(fl.Field().String())
			return err == nil
		}); err != nil {
			panic(err)
		}
	})
	return validate
}

func describe(err validator.FieldError) string {
	switch err.Tag() {
	case "predictor":
		return fmt.Sprintf("value of `%s` in config must be one of [user_based,item_based,slope_one], but the current value is %v",
			err.Namespace(), err.Value())
	case "preset":
		return fmt.Sprintf("value of `%s` in config must be one of [%s], but the current value is %v",
			err.Namespace(), strings.Join(knn.PresetNames(), ","), err.Value())
	case "required":
		return fmt.Sprintf("value of `%s` in config must not be empty", err.Namespace())
	}
	return fmt.Sprintf("value of `%s` in config must satisfy %s=%s, but the current value is %v",
		err.Namespace(), err.Tag(), err.Param(), err.Value())
}

// Validate checks every section of the configuration.
func (config *Config) Validate() error {
	err := getValidator().Struct(config)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return errors.Trace(err)
	}
	messages := make([]string, len(fieldErrors))
	for i, fieldErr := range fieldErrors {
		messages[i] = describe(fieldErr)
	}
	return errors.NotValidf("%s", strings.Join(messages, "; "))
}
