package repository

// SchemaStatements are the idempotent DDL statements for the dispersion
// database. ReplacingMergeTree gives upsert semantics on the keyed
// tables: re-inserting (symbol, ts) or date replaces the previous row
// at merge time, and reads use FINAL where that matters.
var SchemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS dispersion`,

	`CREATE TABLE IF NOT EXISTS dispersion.observations (
        ts      DateTime64(3),
        symbol  String,
        source  String,
        price   Float64,
        volume  Nullable(Float64)
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, source, ts)`,

	`CREATE TABLE IF NOT EXISTS dispersion.dispersion_signals (
        symbol                     String,
        ts                         DateTime,
        price_dispersion           Nullable(Float64),
        price_sources              Int32,
        price_max                  Nullable(Float64),
        price_min                  Nullable(Float64),
        price_avg                  Nullable(Float64),
        price_stddev               Nullable(Float64),
        volume_concentration       Nullable(Float64),
        volume_total               Nullable(Float64),
        btc_dominance              Nullable(Float64),
        btc_dominance_change_7d    Nullable(Float64),
        eth_dominance              Nullable(Float64),
        eth_dominance_change_7d    Nullable(Float64),
        signal_level               Nullable(Int32),
        signal_type                String,
        data_sources               String,
        calculation_method         String
    ) ENGINE = ReplacingMergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, ts)`,

	`CREATE TABLE IF NOT EXISTS dispersion.enhanced_signals (
        symbol            String,
        ts                DateTime,
        price_dispersion  Nullable(Float64),
        price_sources     Int32,
        sentiment_score   Nullable(Float64),
        mention_count     Nullable(Int32),
        signal_level      Nullable(Int32),
        signal_type       String,
        confidence_score  Float64,
        data_sources      String
    ) ENGINE = ReplacingMergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, ts)`,

	`CREATE TABLE IF NOT EXISTS dispersion.dispersion_summary_daily (
        date                   Date,
        market_dispersion_avg  Nullable(Float64),
        market_dispersion_max  Nullable(Float64),
        market_dispersion_min  Nullable(Float64),
        top_dispersion_coins   String,
        low_dispersion_coins   String,
        btc_dominance_avg      Nullable(Float64),
        eth_dominance_avg      Nullable(Float64),
        high_signal_count      Int32,
        low_signal_count       Int32,
        coins_analyzed         Int32
    ) ENGINE = ReplacingMergeTree()
    ORDER BY date`,

	`CREATE TABLE IF NOT EXISTS dispersion.global_metrics (
        ts                DateTime,
        btc_dominance     Nullable(Float64),
        eth_dominance     Nullable(Float64),
        total_market_cap  Nullable(Float64),
        total_volume_24h  Nullable(Float64),
        source            String
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY ts`,
}
