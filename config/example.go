package config

var ExampleYaml = `
doorbell:
  pin: 19
  debounce: 10s
  local_ip: 192.168.1.20
meeting:
  host: https://meet.jit.si
  active: 3m
ring:
  enabled: true
  file: /home/pi/wifi-doorbell/doorbell.wav
email:
  enabled: true
  from: doorbell@example.com
  password: app-password
  to: me@example.com
lock:
  pin: 16
  port: 80
  duration: 20s
endpoints:
  mqtt:
    broker: tcp://127.0.0.1:1883
`

// ExampleConfig returns a fresh copy of the example configuration.
func ExampleConfig() *Config {
	conf, err := OpenRaw([]byte(ExampleYaml))
	if err != nil {
		panic(err)
	}
	return conf
}
