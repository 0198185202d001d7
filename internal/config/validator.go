package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern        = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	componentNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("component_name", func(fl validator.FieldLevel) bool {
			return componentNamePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return kuberrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if cfg.Settings.DecisionOverride != "" {
		if _, err := model.ParseDecision(cfg.Settings.DecisionOverride); err != nil {
			return kuberrors.NewValidationError("settings.decision_override", err.Error(), nil)
		}
	}

	if gate := cfg.Settings.CheckSeverityGate; gate != "" {
		if !model.Severity(gate).Valid() || model.Severity(gate) == model.SeverityOK {
			return kuberrors.NewValidationError("settings.check_severity_gate", fmt.Sprintf("unrecognised severity gate %q", gate), nil)
		}
	}

	nameIndex := make(map[string]int, len(cfg.Components))
	for i, component := range cfg.Components {
		if _, exists := nameIndex[component.Name]; exists {
			return kuberrors.NewValidationError(fieldForComponent(i, "name"), fmt.Sprintf("duplicate component name %q", component.Name), nil)
		}

		if err := ValidateComponent(component); err != nil {
			return err
		}

		nameIndex[component.Name] = i
	}

	return nil
}

// ValidateComponent validates a single component independent of other
// configuration properties.
func ValidateComponent(component Component) error {
	v := validatorInstance()
	if err := v.Struct(component); err != nil {
		return convertValidationError(err)
	}

	section := map[string]bool{
		"containerd": component.Containerd != nil,
		"kubeadm":    component.Kubeadm != nil,
		"cni":        component.CNI != nil,
		"registry":   component.Registry != nil,
		"tls":        component.TLS != nil,
		"monitoring": component.Monitoring != nil,
		"jupyterhub": component.JupyterHub != nil,
	}
	if present, known := section[component.Type]; known && !present {
		return kuberrors.NewValidationError(component.Name, fmt.Sprintf("missing %s configuration section", component.Type), nil)
	}

	return nil
}

func convertValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if ok := asValidationErrors(err, &validationErrors); !ok {
		return kuberrors.NewValidationError("config", err.Error(), err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed %q", fieldErr.Namespace(), fieldErr.Tag()))
	}
	sort.Strings(messages)

	return kuberrors.NewValidationError("config", strings.Join(messages, "; "), err)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	converted, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = converted
	return true
}

func fieldForComponent(index int, field string) string {
	return fmt.Sprintf("components[%d].%s", index, field)
}
