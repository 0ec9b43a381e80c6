package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Game   GameConfig   `mapstructure:"game"`
}

type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	Debug          bool    `mapstructure:"debug"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type StoreConfig struct {
	Mode          string        `mapstructure:"mode"` // sqlite | mysql | redis | memory
	SQLitePath    string        `mapstructure:"sqlite_path"`
	MySQLDSN      string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen  int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle  int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife  time.Duration `mapstructure:"mysql_max_life"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// GameConfig carries the balance numbers and pacing delays the engine
// runs on. Scripts only declare content; everything numeric that is not
// on a character or item template comes from here.
type GameConfig struct {
	// New-player baseline.
	StartHP        int `mapstructure:"start_hp"`
	StartMP        int `mapstructure:"start_mp"`
	StartGold      int `mapstructure:"start_gold"`
	StartLevel     int `mapstructure:"start_level"`
	StartExpToNext int `mapstructure:"start_exp_to_next"`
	StartAttack    int `mapstructure:"start_attack"`
	StartDefense   int `mapstructure:"start_defense"`
	StartSpeed     int `mapstructure:"start_speed"`
	StartLuck      int `mapstructure:"start_luck"`
	StartCrit      int `mapstructure:"start_crit"`

	// Per-level gains and threshold growth.
	LevelHPGain      int     `mapstructure:"level_hp_gain"`
	LevelMPGain      int     `mapstructure:"level_mp_gain"`
	LevelAttackGain  int     `mapstructure:"level_attack_gain"`
	LevelDefenseGain int     `mapstructure:"level_defense_gain"`
	LevelSpeedGain   int     `mapstructure:"level_speed_gain"`
	LevelLuckGain    int     `mapstructure:"level_luck_gain"`
	ExpGrowth        float64 `mapstructure:"exp_growth"`

	// Enemy defaults when a character template omits combat stats.
	EnemyHP         int     `mapstructure:"enemy_hp"`
	EnemyAttack     int     `mapstructure:"enemy_attack"`
	EnemyDefense    int     `mapstructure:"enemy_defense"`
	BossHPMult      float64 `mapstructure:"boss_hp_mult"`
	BossAttackMult  float64 `mapstructure:"boss_attack_mult"`
	BossDefenseMult float64 `mapstructure:"boss_defense_mult"`

	// Combat economy.
	NormalRewardGold int     `mapstructure:"normal_reward_gold"`
	NormalRewardExp  int     `mapstructure:"normal_reward_exp"`
	BossRewardGold   int     `mapstructure:"boss_reward_gold"`
	BossRewardExp    int     `mapstructure:"boss_reward_exp"`
	BuyMultiplier    float64 `mapstructure:"buy_multiplier"`
	FleeChance       float64 `mapstructure:"flee_chance"`
	DefeatHPRatio    float64 `mapstructure:"defeat_hp_ratio"`
	DefeatGoldRatio  float64 `mapstructure:"defeat_gold_ratio"`

	// Pacing. Deferred continuations fire after these delays.
	EnemyTurnDelay          time.Duration `mapstructure:"enemy_turn_delay"`
	EnemyTurnDelegatedDelay time.Duration `mapstructure:"enemy_turn_delegated_delay"`
	EnemyActDelay           time.Duration `mapstructure:"enemy_act_delay"`
	SafeTransitionDelay     time.Duration `mapstructure:"safe_transition_delay"`
	VictoryAdvanceDelay     time.Duration `mapstructure:"victory_advance_delay"`
	FleeAdvanceDelay        time.Duration `mapstructure:"flee_advance_delay"`
	DelegationCadence       time.Duration `mapstructure:"delegation_cadence"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultGame returns the GameConfig with every default applied.
// Tests build engines from this instead of reading a config file.
func DefaultGame() GameConfig {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(err)
	}
	return cfg.Game
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.rate_limit_rps", 100)
	v.SetDefault("server.rate_limit_burst", 200)

	v.SetDefault("store.mode", "sqlite")
	v.SetDefault("store.sqlite_path", "./data/saves.db")
	v.SetDefault("store.mysql_max_open", 50)
	v.SetDefault("store.mysql_max_idle", 10)
	v.SetDefault("store.mysql_max_life", "1h")

	v.SetDefault("game.start_hp", 100)
	v.SetDefault("game.start_mp", 50)
	v.SetDefault("game.start_gold", 100)
	v.SetDefault("game.start_level", 1)
	v.SetDefault("game.start_exp_to_next", 100)
	v.SetDefault("game.start_attack", 10)
	v.SetDefault("game.start_defense", 5)
	v.SetDefault("game.start_speed", 7)
	v.SetDefault("game.start_luck", 5)
	v.SetDefault("game.start_crit", 5)

	v.SetDefault("game.level_hp_gain", 20)
	v.SetDefault("game.level_mp_gain", 10)
	v.SetDefault("game.level_attack_gain", 2)
	v.SetDefault("game.level_defense_gain", 1)
	v.SetDefault("game.level_speed_gain", 1)
	v.SetDefault("game.level_luck_gain", 1)
	v.SetDefault("game.exp_growth", 1.5)

	v.SetDefault("game.enemy_hp", 50)
	v.SetDefault("game.enemy_attack", 8)
	v.SetDefault("game.enemy_defense", 3)
	v.SetDefault("game.boss_hp_mult", 3.0)
	v.SetDefault("game.boss_attack_mult", 1.5)
	v.SetDefault("game.boss_defense_mult", 1.5)

	v.SetDefault("game.normal_reward_gold", 20)
	v.SetDefault("game.normal_reward_exp", 30)
	v.SetDefault("game.boss_reward_gold", 100)
	v.SetDefault("game.boss_reward_exp", 150)
	v.SetDefault("game.buy_multiplier", 1.5)
	v.SetDefault("game.flee_chance", 0.5)
	v.SetDefault("game.defeat_hp_ratio", 0.1)
	v.SetDefault("game.defeat_gold_ratio", 0.2)

	v.SetDefault("game.enemy_turn_delay", "1s")
	v.SetDefault("game.enemy_turn_delegated_delay", "500ms")
	v.SetDefault("game.enemy_act_delay", "500ms")
	v.SetDefault("game.safe_transition_delay", "1500ms")
	v.SetDefault("game.victory_advance_delay", "1500ms")
	v.SetDefault("game.flee_advance_delay", "1s")
	v.SetDefault("game.delegation_cadence", "1500ms")
}
