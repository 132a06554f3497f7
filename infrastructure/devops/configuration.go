package devops

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// DeviceEntry is one terminal in the fleet parameter. Comm keys live in
// SSM (encrypted), not in the database, so registering a site's terminals
// is a parameter edit plus one CLI run.
type DeviceEntry struct {
	Name     string `yaml:"name"`
	IP       string `yaml:"ip"`
	Port     int    `yaml:"port"`
	Provider string `yaml:"provider"`
	CommKey  int    `yaml:"commKey"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Location string `yaml:"location"`
}

var (
	once       sync.Once
	deviceList []DeviceEntry
	loadErr    error
)

// LoadDeviceFleet reads the terminal fleet from the SSM parameter store.
func LoadDeviceFleet(ctx context.Context) ([]DeviceEntry, error) {
	once.Do(func() {
		paramName := "hrms-devices"

		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			loadErr = fmt.Errorf("load aws config: %w", err)
			return
		}

		client := ssm.NewFromConfig(cfg)

		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(paramName),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			loadErr = fmt.Errorf("get parameter: %w", err)
			return
		}

		var parsed []DeviceEntry
		if err := yaml.Unmarshal([]byte(*out.Parameter.Value), &parsed); err != nil {
			loadErr = fmt.Errorf("unmarshal yaml: %w", err)
			return
		}

		deviceList = parsed
	})

	return deviceList, loadErr
}
